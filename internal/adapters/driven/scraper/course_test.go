package scraper

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/virtual-ta/internal/core/domain"
)

const coursePage = `<!doctype html>
<html>
<head><title>Docker vs Podman</title><style>body{}</style></head>
<body>
<nav><a href="/">Home</a></nav>
<main>
<h1>Containers</h1>
<p>Use <strong>Podman</strong> for this course.</p>
<ul><li>rootless</li><li>docker compatible</li></ul>
</main>
<footer>Copyright</footer>
</body>
</html>`

func TestPageToText(t *testing.T) {
	title, text, err := PageToText("https://tds.example/docker", []byte(coursePage))
	require.NoError(t, err)

	assert.Equal(t, "Docker vs Podman", title)
	assert.Contains(t, text, "# Containers")
	assert.Contains(t, text, "Use **Podman** for this course.")
	assert.Contains(t, text, "rootless")
	assert.NotContains(t, text, "Home")
	assert.NotContains(t, text, "Copyright")
}

func TestPageToText_TitleFallbacks(t *testing.T) {
	title, _, err := PageToText("https://tds.example/a", []byte(`<html><body><h1>Week 1</h1><p>intro</p></body></html>`))
	require.NoError(t, err)
	assert.Equal(t, "Week 1", title)

	title, _, err = PageToText("https://tds.example/b", []byte(`<html><body><p>Short first line</p><p>more</p></body></html>`))
	require.NoError(t, err)
	assert.Equal(t, "Short first line", title)
}

func TestTitleFromText(t *testing.T) {
	long := ""
	for i := 0; i < 120; i++ {
		long += "x"
	}
	assert.Equal(t, "second", TitleFromText("\n"+long+"\n## second\n"))
	assert.Equal(t, "", TitleFromText("   \n"))
}

func TestCourseSource_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/docker":
			io.WriteString(w, coursePage)
		case "/empty":
			io.WriteString(w, `<html><body><script>x()</script></body></html>`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	src := NewCourseSource(CourseConfig{
		URLs:              []string{srv.URL + "/docker", srv.URL + "/missing", srv.URL + "/empty"},
		RequestsPerSecond: 1000,
		Logger:            quietLogger(),
		Now:               func() time.Time { return fixedNow },
	})

	docs, err := src.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, srv.URL+"/docker", docs[0].URL)
	assert.Equal(t, domain.SourceKindCourseMaterial, docs[0].SourceKind)
	assert.Equal(t, fixedNow, docs[0].FetchedAt)
	assert.NoError(t, docs[0].Validate())
}

func TestCourseSource_AllPagesFail(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	src := NewCourseSource(CourseConfig{
		URLs:              []string{srv.URL + "/a", srv.URL + "/b"},
		RequestsPerSecond: 1000,
		Logger:            quietLogger(),
	})

	_, err := src.Fetch(context.Background())
	assert.Error(t, err)
}

func TestCourseSource_NoURLs(t *testing.T) {
	docs, err := NewCourseSource(CourseConfig{}).Fetch(context.Background())
	require.NoError(t, err)
	assert.Empty(t, docs)
}
