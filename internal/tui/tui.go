// Package tui implements an interactive pack browser: a terminal UI for
// listing installed knowledge packs, inspecting their manifests, and
// running one-shot queries against a selected pack's graph store.
package tui

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"kgpack/internal/config"
	"kgpack/internal/graphstore"
	"kgpack/internal/llm"
	"kgpack/internal/pack"
	"kgpack/internal/retrieval"
	"kgpack/internal/security"
)

type viewMode int

const (
	viewPackList viewMode = iota
	viewPackDetail
	viewQueryInput
	viewQueryResult
)

// model is the state of the pack browser.
type model struct {
	cfg      *config.Config
	registry *pack.PackRegistry

	width, height int
	mode          viewMode
	quitting      bool
	selectedIdx   int

	packNames []string
	manifest  *pack.Manifest
	loaded    int

	queryInput string
	result     retrieval.QueryResult
	querying   bool

	errorMessage  string
	statusMessage string
}

// InitialModel opens the pack registry from cfg and returns the initial
// browser state.
func InitialModel(cfg *config.Config) model {
	reg, err := pack.NewPackRegistry(cfg.Pack.InstallDir)
	m := model{cfg: cfg, registry: reg, mode: viewPackList}
	if err != nil {
		m.errorMessage = security.SanitizeError(err.Error())
		return m
	}
	m.packNames = reg.ListPacks()
	return m
}

func (m model) Init() tea.Cmd {
	return nil
}

type queryResultMsg struct {
	result retrieval.QueryResult
	err    error
}

func runQuery(cfg *config.Config, packDir, question string) tea.Cmd {
	return func() tea.Msg {
		store, err := graphstore.Open(packDir+"/pack.db", cfg.Store.EmbeddingDims)
		if err != nil {
			return queryResultMsg{err: fmt.Errorf("opening pack store: %w", err)}
		}
		defer store.Close()

		client, err := llm.NewClient(cfg.LLM.Model)
		if err != nil {
			return queryResultMsg{err: fmt.Errorf("LLM client unavailable: %w", err)}
		}

		engine := &retrieval.Engine{
			Store:    store,
			Embedder: client,
			Gen:      client,
			Config: retrieval.Config{
				SimilarityThreshold:  cfg.Retrieval.SimilarityThreshold,
				ContentQualityMin:    cfg.Retrieval.ContentQualityMin,
				VectorWeight:         cfg.Retrieval.VectorWeight,
				GraphWeight:          cfg.Retrieval.GraphWeight,
				KeywordWeight:        cfg.Retrieval.KeywordWeight,
				RerankVectorWeight:   cfg.Retrieval.RerankVectorWeight,
				RerankGraphWeight:    cfg.Retrieval.RerankGraphWeight,
				RRFK:                 cfg.Retrieval.RRFK,
				PlanCacheSize:        cfg.Retrieval.PlanCacheSize,
				EnableReranker:       cfg.Retrieval.EnableReranker,
				EnableMultiDoc:       cfg.Retrieval.EnableMultiDoc,
				EnableFewShot:        cfg.Retrieval.EnableFewShot,
				EnableMultiQuery:     cfg.Retrieval.EnableMultiQuery,
				EnableCypherFallback: cfg.Retrieval.EnableCypherFallback,
				FewShotExamplesPath:  cfg.Retrieval.FewShotExamplesPath,
			},
		}

		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()

		result, err := engine.Query(ctx, question, 5, false)
		return queryResultMsg{result: result, err: err}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case queryResultMsg:
		m.querying = false
		if msg.err != nil {
			m.errorMessage = security.SanitizeError(msg.err.Error())
			return m, nil
		}
		m.result = msg.result
		m.mode = viewQueryResult
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}
		switch m.mode {
		case viewPackList:
			return m.updatePackList(msg)
		case viewPackDetail:
			return m.updatePackDetail(msg)
		case viewQueryInput:
			return m.updateQueryInput(msg)
		case viewQueryResult:
			return m.updateQueryResult(msg)
		}
	}
	return m, nil
}

func (m model) updatePackList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.selectedIdx > 0 {
			m.selectedIdx--
		}
	case "down", "j":
		if m.selectedIdx < len(m.packNames)-1 {
			m.selectedIdx++
		}
	case "enter":
		if len(m.packNames) == 0 {
			break
		}
		name := m.packNames[m.selectedIdx]
		dir, err := m.registry.GetPack(name)
		if err != nil {
			m.errorMessage = security.SanitizeError(err.Error())
			break
		}
		manifest, err := pack.LoadManifest(dir + "/manifest.json")
		if err != nil {
			m.errorMessage = security.SanitizeError(err.Error())
			break
		}
		m.manifest = manifest
		if store, err := graphstore.Open(dir+"/pack.db", m.cfg.Store.EmbeddingDims); err == nil {
			m.loaded, _ = store.LoadedCount(context.Background())
			store.Close()
		}
		m.mode = viewPackDetail
		m.errorMessage = ""
	case "q", "esc":
		m.quitting = true
		return m, tea.Quit
	}
	return m, nil
}

func (m model) updatePackDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "enter":
		m.queryInput = ""
		m.mode = viewQueryInput
	case "esc":
		m.mode = viewPackList
	}
	return m, nil
}

func (m model) updateQueryInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = viewPackDetail
	case "enter":
		if strings.TrimSpace(m.queryInput) == "" {
			return m, nil
		}
		name := m.packNames[m.selectedIdx]
		dir, err := m.registry.GetPack(name)
		if err != nil {
			m.errorMessage = security.SanitizeError(err.Error())
			return m, nil
		}
		m.querying = true
		m.errorMessage = ""
		return m, runQuery(m.cfg, dir, m.queryInput)
	case "backspace":
		if len(m.queryInput) > 0 {
			m.queryInput = m.queryInput[:len(m.queryInput)-1]
		}
	default:
		if len(msg.String()) == 1 {
			m.queryInput += msg.String()
		}
	}
	return m, nil
}

func (m model) updateQueryResult(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q":
		m.mode = viewPackDetail
	case "n":
		m.queryInput = ""
		m.mode = viewQueryInput
	}
	return m, nil
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("105")).Padding(0, 1)
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99")).
		BorderStyle(lipgloss.NormalBorder()).BorderBottom(true).Padding(0, 1)
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("170")).Background(lipgloss.Color("57"))
	normalStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("71")).Italic(true)
)

func (m model) View() string {
	if m.quitting {
		return "Closing pack browser.\n"
	}

	var content strings.Builder
	content.WriteString(titleStyle.Render("Knowledge Pack Browser"))
	content.WriteString("\n\n")

	if m.errorMessage != "" {
		content.WriteString(errorStyle.Render("error: " + m.errorMessage))
		content.WriteString("\n\n")
	}
	if m.statusMessage != "" {
		content.WriteString(statusStyle.Render(m.statusMessage))
		content.WriteString("\n\n")
	}

	switch m.mode {
	case viewPackList:
		content.WriteString(m.renderPackList())
	case viewPackDetail:
		content.WriteString(m.renderPackDetail())
	case viewQueryInput:
		content.WriteString(m.renderQueryInput())
	case viewQueryResult:
		content.WriteString(m.renderQueryResult())
	}

	content.WriteString("\n")
	content.WriteString(normalStyle.Render("[Ctrl+C] quit  [Esc] back"))
	return content.String()
}

func (m model) renderPackList() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Installed packs"))
	b.WriteString("\n\n")

	if len(m.packNames) == 0 {
		b.WriteString(normalStyle.Render("No packs installed under " + m.cfg.Pack.InstallDir))
		return b.String()
	}
	for i, name := range m.packNames {
		line := "  " + name
		if i == m.selectedIdx {
			b.WriteString(selectedStyle.Render(line))
		} else {
			b.WriteString(normalStyle.Render(line))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m model) renderPackDetail() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Pack: " + m.manifest.Name))
	b.WriteString("\n\n")
	b.WriteString(normalStyle.Render(m.manifest.Description))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "version: %s\n", m.manifest.Version)
	fmt.Fprintf(&b, "license: %s\n", m.manifest.License)
	fmt.Fprintf(&b, "articles (manifest / loaded): %d / %d\n", m.manifest.GraphStats.Articles, m.loaded)
	fmt.Fprintf(&b, "entities: %d  relationships: %d\n", m.manifest.GraphStats.Entities, m.manifest.GraphStats.Relationships)
	if m.manifest.EvalScores != nil {
		fmt.Fprintf(&b, "accuracy: %.2f  hallucination rate: %.2f  citation quality: %.2f\n",
			m.manifest.EvalScores.Accuracy, m.manifest.EvalScores.HallucinationRate, m.manifest.EvalScores.CitationQuality)
	}
	b.WriteString("\n")
	b.WriteString(normalStyle.Render("[Enter] ask a question  [Esc] back to list"))
	return b.String()
}

func (m model) renderQueryInput() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Ask " + m.manifest.Name))
	b.WriteString("\n\n")
	if m.querying {
		b.WriteString(normalStyle.Render("Querying..."))
		return b.String()
	}
	b.WriteString(normalStyle.Render("> " + m.queryInput))
	b.WriteString("\n\n")
	b.WriteString(normalStyle.Render("[Enter] submit  [Esc] back"))
	return b.String()
}

func (m model) renderQueryResult() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Answer"))
	b.WriteString("\n\n")
	b.WriteString(normalStyle.Render(m.result.Answer))
	b.WriteString("\n\n")
	if len(m.result.Sources) > 0 {
		b.WriteString(normalStyle.Render("Sources:"))
		b.WriteString("\n")
		for _, s := range m.result.Sources {
			fmt.Fprintf(&b, "  - %s\n", s.Title)
		}
	}
	b.WriteString("\n")
	b.WriteString(normalStyle.Render("[n] ask another  [Esc] back to pack"))
	return b.String()
}

// StartTUI launches the pack browser against the given configuration.
func StartTUI(cfg *config.Config) {
	p := tea.NewProgram(InitialModel(cfg), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "pack browser error: %v\n", err)
		os.Exit(1)
	}
}
