package filestore

import (
	"context"
	"io/ioutil"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Daskott/raksha/server/apperr"
	"github.com/Daskott/raksha/utils"
	"github.com/stretchr/testify/assert"
)

func TestLocalSaveOpenDelete(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocal(t.TempDir())
	assert.Nil(t, err)

	ref, err := store.Save(ctx, "document-1.png", strings.NewReader("png-bytes"))
	assert.Nil(t, err)
	exists, err := utils.FileExist(ref)
	assert.Nil(t, err)
	assert.True(t, exists)

	rc, err := store.Open(ctx, ref)
	assert.Nil(t, err)
	content, err := ioutil.ReadAll(rc)
	rc.Close()
	assert.Nil(t, err)
	assert.Equal(t, "png-bytes", string(content))

	assert.Nil(t, store.Delete(ctx, ref))
	exists, err = utils.FileExist(ref)
	assert.Nil(t, err)
	assert.False(t, exists)
	assert.Nil(t, store.Delete(ctx, ref), "deleting twice should not fail")

	_, err = store.Open(ctx, ref)
	assert.True(t, apperr.Is(err, apperr.NotFound))
}

func TestLocalRejectsPathsInName(t *testing.T) {
	store, err := NewLocal(t.TempDir())
	assert.Nil(t, err)

	for _, name := range []string{"", "..", "../escape.png", "a/b.png"} {
		_, err := store.Save(context.Background(), name, strings.NewReader("x"))
		assert.True(t, apperr.Is(err, apperr.Validation), name)
	}
}

func TestLocalSaveDoesNotOverwrite(t *testing.T) {
	store, err := NewLocal(t.TempDir())
	assert.Nil(t, err)

	_, err = store.Save(context.Background(), "same.pdf", strings.NewReader("1"))
	assert.Nil(t, err)

	_, err = store.Save(context.Background(), "same.pdf", strings.NewReader("2"))
	assert.NotNil(t, err)
}

func TestLocalListSkipsDirectories(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocal(dir)
	assert.Nil(t, err)

	assert.Nil(t, utils.CreateDirIfNotExist(filepath.Join(dir, "nested")))
	first, err := store.Save(context.Background(), "document-1.png", strings.NewReader("1"))
	assert.Nil(t, err)
	second, err := store.Save(context.Background(), "document-2.pdf", strings.NewReader("2"))
	assert.Nil(t, err)

	refs, err := store.List(context.Background())
	assert.Nil(t, err)
	assert.Equal(t, []string{first, second}, refs)
}
