package graphstore

import "fmt"

// schemaSQL returns the DDL for the entire pack graph: node tables,
// edge tables, and the sqlite-vec virtual tables backing
// QUERY_VECTOR_INDEX over Section and Chunk embeddings. embeddingDim
// controls the vec0 virtual table width.
func schemaSQL(embeddingDim int) string {
	return fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS articles (
    title           TEXT PRIMARY KEY,
    category        TEXT NOT NULL DEFAULT '',
    word_count      INTEGER NOT NULL DEFAULT 0,
    expansion_state TEXT NOT NULL DEFAULT 'discovered',
    expansion_depth INTEGER NOT NULL DEFAULT 0,
    claimed_at      DATETIME,
    processed_at    DATETIME,
    retry_count     INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS categories (
    name          TEXT PRIMARY KEY,
    article_count INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS article_categories (
    article_title TEXT NOT NULL REFERENCES articles(title),
    category_name TEXT NOT NULL REFERENCES categories(name),
    PRIMARY KEY (article_title, category_name)
);

CREATE TABLE IF NOT EXISTS sections (
    id            INTEGER PRIMARY KEY,
    section_id    TEXT NOT NULL UNIQUE,
    article_title TEXT NOT NULL REFERENCES articles(title),
    section_index INTEGER NOT NULL,
    title         TEXT NOT NULL DEFAULT '',
    content       TEXT NOT NULL DEFAULT '',
    level         INTEGER NOT NULL DEFAULT 0,
    word_count    INTEGER NOT NULL DEFAULT 0
);

CREATE VIRTUAL TABLE IF NOT EXISTS vec_sections USING vec0(
    section_rowid INTEGER PRIMARY KEY,
    embedding     float[%d]
);

CREATE TABLE IF NOT EXISTS chunks (
    id            INTEGER PRIMARY KEY,
    chunk_id      TEXT NOT NULL UNIQUE,
    article_title TEXT NOT NULL REFERENCES articles(title),
    section_index INTEGER NOT NULL,
    chunk_index   INTEGER NOT NULL,
    content       TEXT NOT NULL DEFAULT ''
);

CREATE VIRTUAL TABLE IF NOT EXISTS vec_chunks USING vec0(
    chunk_rowid INTEGER PRIMARY KEY,
    embedding   float[%d]
);

CREATE TABLE IF NOT EXISTS links_to (
    source_title TEXT NOT NULL,
    target_title TEXT NOT NULL,
    link_type    TEXT NOT NULL DEFAULT 'internal',
    PRIMARY KEY (source_title, target_title, link_type)
);

CREATE TABLE IF NOT EXISTS entities (
    entity_id   TEXT PRIMARY KEY,
    name        TEXT NOT NULL,
    type        TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS article_entities (
    article_title TEXT NOT NULL REFERENCES articles(title),
    entity_id     TEXT NOT NULL REFERENCES entities(entity_id),
    PRIMARY KEY (article_title, entity_id)
);

CREATE TABLE IF NOT EXISTS facts (
    fact_id       TEXT PRIMARY KEY,
    article_title TEXT NOT NULL REFERENCES articles(title),
    content       TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS article_facts (
    article_title TEXT NOT NULL REFERENCES articles(title),
    fact_id       TEXT NOT NULL REFERENCES facts(fact_id),
    PRIMARY KEY (article_title, fact_id)
);

CREATE TABLE IF NOT EXISTS entity_relations (
    source_entity_id TEXT NOT NULL REFERENCES entities(entity_id),
    relation         TEXT NOT NULL,
    target_entity_id TEXT NOT NULL REFERENCES entities(entity_id),
    context          TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (source_entity_id, relation, target_entity_id)
);

CREATE INDEX IF NOT EXISTS idx_sections_article ON sections(article_title);
CREATE INDEX IF NOT EXISTS idx_chunks_article ON chunks(article_title);
CREATE INDEX IF NOT EXISTS idx_links_source ON links_to(source_title);
CREATE INDEX IF NOT EXISTS idx_links_target ON links_to(target_title);
CREATE INDEX IF NOT EXISTS idx_article_entities_entity ON article_entities(entity_id);
CREATE INDEX IF NOT EXISTS idx_entity_relations_source ON entity_relations(source_entity_id);
CREATE INDEX IF NOT EXISTS idx_entity_relations_target ON entity_relations(target_entity_id);
CREATE INDEX IF NOT EXISTS idx_articles_state ON articles(expansion_state);
`, embeddingDim, embeddingDim)
}
