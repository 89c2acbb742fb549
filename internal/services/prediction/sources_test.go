package prediction

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ternarybob/moutai/internal/interfaces"
	"github.com/ternarybob/moutai/internal/models"
)

func TestExtractSources(t *testing.T) {
	sources := ExtractSources([]interfaces.GroundingChunk{
		{Web: &interfaces.WebChunk{Title: "今日酒价", URI: "https://example.com/price"}},
		{},
		{Web: &interfaces.WebChunk{URI: "https://example.com/no-title"}},
		{Web: &interfaces.WebChunk{Title: "no uri"}},
		{Web: &interfaces.WebChunk{}},
	})

	assert.Equal(t, []models.Source{
		{Title: "今日酒价", URI: "https://example.com/price"},
		{Title: models.DefaultSourceTitle, URI: "https://example.com/no-title"},
		{Title: "no uri", URI: models.DefaultSourceURI},
		{Title: models.DefaultSourceTitle, URI: models.DefaultSourceURI},
	}, sources)
}

func TestExtractSourcesEmpty(t *testing.T) {
	sources := ExtractSources(nil)
	assert.NotNil(t, sources)
	assert.Empty(t, sources)
}
