package policy

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifier_IsArchive(t *testing.T) {
	c := NewDefaultClassifier()

	tests := []struct {
		name string
		file string
		want bool
	}{
		{"zip", "report.zip", true},
		{"upper case", "REPORT.ZIP", true},
		{"mixed case", "Backup.Tar.Gz", true},
		{"xz is archive but not conventional", "kernel.tar.xz", true},
		{"disk image", "ubuntu-24.04.iso", true},
		{"legacy single letter", "old.Z", true},
		{"package deb", "tool_1.0_amd64.deb", true},
		{"package rpm", "tool-1.0.x86_64.rpm", true},
		{"package apk", "app-release.apk", true},
		{"split part", "movie.part1", true},
		{"split listed volume", "data.xyz999.001", true},
		{"numbered volume not in table", "data.xyz999.004", true},
		{"numbered volume high", "set.999", true},
		{"backup", "db.backup", true},
		{"plain text", "notes.txt", false},
		{"partial download", "report.zip.crdownload", false},
		{"two digit suffix", "file.01", false},
		{"four digit suffix", "file.0001", false},
		{"no extension", "README", false},
		{"zip in the middle", "zipper.pdf", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.IsArchive(tt.file), tt.file)
		})
	}
}

func TestClassifier_IsConventional(t *testing.T) {
	c := NewDefaultClassifier()

	for _, ext := range []string{"zip", "rar", "7z", "tar", "gz", "bz2"} {
		for _, name := range []string{"a." + ext, "A." + strings.ToUpper(ext)} {
			assert.True(t, c.IsConventional(name), name)
			assert.True(t, c.IsArchive(name), name)
		}
	}

	// Archives outside the conventional subset
	for _, name := range []string{"a.xz", "a.iso", "a.cab", "a.deb", "a.001", "a.004", "a.jar", "a.tbz2"} {
		assert.True(t, c.IsArchive(name), name)
		assert.False(t, c.IsConventional(name), name)
	}
}

func TestClassifier_EveryTableEntryIsArchive(t *testing.T) {
	c := NewDefaultClassifier()
	for _, f := range DefaultFamilies() {
		for _, ext := range f.Extensions() {
			assert.True(t, c.IsArchive("download"+ext), "%s/%s", f.ID(), ext)
			assert.True(t, c.IsArchive("DOWNLOAD"+strings.ToUpper(ext)), "%s/%s upper", f.ID(), ext)
		}
	}
}

func TestClassifier_ConventionalSubsetOfExtensions(t *testing.T) {
	for _, f := range DefaultFamilies() {
		for _, conv := range f.Conventional() {
			assert.Contains(t, f.Extensions(), conv, "family %s", f.ID())
		}
	}
}

func TestRegistry_FamilyOf(t *testing.T) {
	r := NewRegistry()

	tests := []struct {
		file   string
		wantID string
	}{
		{"a.zip", "common"},
		{"a.ISO", "disk-image"},
		{"a.tbz2", "compressed-tar"},
		{"a.apk", "package"},
		{"a.002", "split"},
		{"a.123", "split"},
		{"a.bak", "backup"},
	}
	for _, tt := range tests {
		f, err := r.FamilyOf(tt.file)
		require.NoError(t, err, tt.file)
		assert.Equal(t, tt.wantID, f.ID(), tt.file)
	}

	_, err := r.FamilyOf("notes.txt")
	assert.Error(t, err)
}

func TestRegistry_RegisterReplacesByID(t *testing.T) {
	r := NewRegistryWithFamilies(
		NewFamily("one", "One", []string{".one"}, nil),
		NewFamily("two", "Two", []string{".two"}, nil),
	)
	r.Register(NewFamily("one", "One v2", []string{".uno"}, []string{".uno"}))

	all := r.GetAll()
	require.Len(t, all, 2)
	assert.Equal(t, "One v2", all[0].Name())

	c := NewClassifier(r)
	assert.False(t, c.IsArchive("x.one"))
	assert.True(t, c.IsArchive("x.uno"))
	assert.True(t, c.IsConventional("x.UNO"))

	f, ok := r.Get("two")
	require.True(t, ok)
	assert.Equal(t, "Two", f.Name())
}
