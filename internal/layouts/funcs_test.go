package layouts

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"git.home.luguber.info/inful/blogbuilder/internal/content"
)

func TestLimit(t *testing.T) {
	files := []*content.File{{Path: "a"}, {Path: "b"}, {Path: "c"}}
	assert.Len(t, limit(2, files), 2)
	assert.Len(t, limit(10, files), 3)
	assert.Len(t, limit(-1, files), 3)
}

func TestFormatDate(t *testing.T) {
	assert.Empty(t, formatDate("2006", time.Time{}))
	assert.Equal(t, "2024", formatDate("2006", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))
}
