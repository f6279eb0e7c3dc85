package processors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJobContentPrefersJobContainers(t *testing.T) {
	cleaner := NewHTMLCleaner()
	html := `<html><body>
		<nav>Home | Jobs | About</nav>
		<div class="job-description">We are hiring a Backend Engineer to build our Go services.
		You will own APIs end to end and work with Postgres and Redis daily.</div>
		<footer>Copyright Acme</footer>
	</body></html>`

	content, err := cleaner.ExtractJobContent(html)
	require.NoError(t, err)
	assert.Contains(t, content, "Backend Engineer")
	assert.NotContains(t, content, "Copyright Acme")
	assert.NotContains(t, content, "Home | Jobs")
}

func TestExtractJobContentStripsScripts(t *testing.T) {
	cleaner := NewHTMLCleaner()
	html := `<html><body><main>
		<script>trackVisitor("secret");</script>
		<style>.hidden { display: none }</style>
		<p>Senior Data Engineer position, remote friendly, building pipelines that move
		billions of events per day through our warehouse.</p>
	</main></body></html>`

	content, err := cleaner.ExtractJobContent(html)
	require.NoError(t, err)
	assert.Contains(t, content, "Senior Data Engineer")
	assert.NotContains(t, content, "trackVisitor")
	assert.NotContains(t, content, "display: none")
}

func TestExtractJobContentFallsBackToBody(t *testing.T) {
	cleaner := NewHTMLCleaner()
	html := `<html><body><div>Plain page describing a Platform Engineer opening with enough
	text in the body to be worth keeping around for extraction.</div></body></html>`

	content, err := cleaner.ExtractJobContent(html)
	require.NoError(t, err)
	assert.Contains(t, content, "Platform Engineer")
}
