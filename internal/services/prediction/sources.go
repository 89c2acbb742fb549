package prediction

import (
	"github.com/ternarybob/moutai/internal/interfaces"
	"github.com/ternarybob/moutai/internal/models"
)

// ExtractSources maps grounding chunks to citations. Chunks without a web citation are
// dropped; a missing title or URI gets the default placeholder.
func ExtractSources(chunks []interfaces.GroundingChunk) []models.Source {
	sources := make([]models.Source, 0, len(chunks))
	for _, chunk := range chunks {
		if chunk.Web == nil {
			continue
		}
		source := models.Source{Title: chunk.Web.Title, URI: chunk.Web.URI}
		if source.Title == "" {
			source.Title = models.DefaultSourceTitle
		}
		if source.URI == "" {
			source.URI = models.DefaultSourceURI
		}
		sources = append(sources, source)
	}
	return sources
}
