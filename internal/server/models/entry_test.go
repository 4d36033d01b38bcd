package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEntry_StoragePaths_Distinct(t *testing.T) {
	e := &Entry{AudioPath: "u1/a.webm", ProcessedPath: "u1/a_processed.webm"}
	assert.Equal(t, []string{"u1/a.webm", "u1/a_processed.webm"}, e.StoragePaths())
}

func TestEntry_StoragePaths_Identical(t *testing.T) {
	// Processed and original may point at the same object; the path set
	// must not contain duplicates.
	e := &Entry{AudioPath: "u1/a.webm", ProcessedPath: "u1/a.webm"}
	assert.Equal(t, []string{"u1/a.webm"}, e.StoragePaths())
}

func TestEntry_StoragePaths_NoProcessed(t *testing.T) {
	e := &Entry{AudioPath: "u1/a.webm"}
	assert.Equal(t, []string{"u1/a.webm"}, e.StoragePaths())
}
