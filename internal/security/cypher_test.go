package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateCypherAllowsPlainMatch(t *testing.T) {
	assert.NoError(t, ValidateCypher(`MATCH (a:Article) RETURN a LIMIT 10`))
}

func TestValidateCypherRejectsDelete(t *testing.T) {
	assert.Error(t, ValidateCypher(`MATCH (a) DELETE a`))
}

func TestValidateCypherRejectsUnboundedPath(t *testing.T) {
	assert.Error(t, ValidateCypher(`MATCH (a)-[:LINKS_TO*]->(b) RETURN b`))
}

func TestValidateCypherAllowsDisallowedKeywordInsideStringLiteral(t *testing.T) {
	assert.NoError(t, ValidateCypher(`MATCH (a) WHERE a.name = "DELETE ME" RETURN a`))
}

func TestValidateCypherAllowsQueryVectorIndexCall(t *testing.T) {
	assert.NoError(t, ValidateCypher(`CALL QUERY_VECTOR_INDEX('sections', $embedding, 5) YIELD node RETURN node`))
}

func TestValidateCypherRejectsNonAllowlistedStart(t *testing.T) {
	assert.Error(t, ValidateCypher(`RETURN 1`))
}

func TestValidateCypherAllowsBoundedVariableLengthPath(t *testing.T) {
	assert.NoError(t, ValidateCypher(`MATCH (a)-[:LINKS_TO*1..3]->(b) RETURN b`))
}

func TestValidateCypherRejectsEachBlockedKeyword(t *testing.T) {
	for _, q := range []string{
		`MATCH (a) CREATE (b)`,
		`MATCH (a) DETACH DELETE a`,
		`MATCH (a) DROP INDEX x`,
		`MATCH (a) SET a.x = 1`,
		`MATCH (a) MERGE (b)`,
		`MATCH (a) REMOVE a.x`,
		`MATCH (a) LOAD CSV FROM "x" AS row`,
	} {
		assert.Error(t, ValidateCypher(q), q)
	}
}
