// Package policy decides by file name which downloads are archives.
// Each format family (common archives, disk images, packages...) is its own
// policy; the Registry aggregates them into a Classifier.
package policy

// FormatFamily groups related archive suffixes.
type FormatFamily interface {
	// ID returns unique identifier (e.g., "common", "disk-image").
	ID() string

	// Name returns human-readable name for display.
	Name() string

	// Extensions returns lowercased suffixes including the leading dot.
	Extensions() []string

	// Conventional returns the subset of Extensions eligible for
	// extraction without asking the user first.
	Conventional() []string
}

// staticFamily is a FormatFamily backed by fixed tables.
type staticFamily struct {
	id           string
	name         string
	extensions   []string
	conventional []string
}

func (f staticFamily) ID() string             { return f.id }
func (f staticFamily) Name() string           { return f.name }
func (f staticFamily) Extensions() []string   { return f.extensions }
func (f staticFamily) Conventional() []string { return f.conventional }

// NewFamily creates a FormatFamily from fixed tables (for testing and extension).
func NewFamily(id, name string, extensions, conventional []string) FormatFamily {
	return staticFamily{id: id, name: name, extensions: extensions, conventional: conventional}
}

// DefaultFamilies returns the built-in extension table in display order.
func DefaultFamilies() []FormatFamily {
	return []FormatFamily{
		staticFamily{
			id:           "common",
			name:         "Common archives",
			extensions:   []string{".7z", ".zip", ".rar", ".tar", ".gz", ".bz2", ".xz"},
			conventional: []string{".zip", ".rar", ".7z", ".tar", ".gz", ".bz2"},
		},
		staticFamily{
			id:         "disk-image",
			name:       "Disk images",
			extensions: []string{".iso", ".img", ".dmg", ".vhd", ".vmdk"},
		},
		staticFamily{
			id:         "legacy",
			name:       "Legacy formats",
			extensions: []string{".cab", ".arj", ".lzh", ".ace", ".uue", ".z"},
		},
		staticFamily{
			id:         "compressed-tar",
			name:       "Compressed tarballs",
			extensions: []string{".taz", ".tbz", ".tbz2", ".txz", ".tlz"},
		},
		staticFamily{
			id:         "package",
			name:       "Application packages",
			extensions: []string{".war", ".jar", ".ear", ".sar", ".apk", ".ipa", ".deb", ".rpm"},
		},
		staticFamily{
			id:         "split",
			name:       "Split archives",
			extensions: []string{".001", ".002", ".003", ".part1", ".part2"},
		},
		staticFamily{
			id:         "other",
			name:       "Other formats",
			extensions: []string{".lzma", ".zipx", ".par", ".par2"},
		},
		staticFamily{
			id:         "backup",
			name:       "Backup formats",
			extensions: []string{".bak", ".backup", ".arc"},
		},
	}
}
