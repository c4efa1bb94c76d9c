// Package fixtures provides test helpers for integration tests.
package fixtures

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

// FakePassword is the only password the fake archiver accepts for archives
// whose name contains "locked".
const FakePassword = "secret"

const fakePeaZipScript = `#!/bin/sh
# Stand-in for the PeaZip command line: -ext2folder -o+ [-pwd P] [-2fa C] ARCHIVE
pwd=""
while [ $# -gt 1 ]; do
  case "$1" in
    -pwd) pwd="$2"; shift 2 ;;
    -2fa) shift 2 ;;
    *) shift ;;
  esac
done
archive="$1"
echo "$archive|$pwd" >> "$(dirname "$0")/calls.log"
case "$archive" in
  *locked*) [ "$pwd" = "` + FakePassword + `" ] || exit 2 ;;
  *broken*) exit 1 ;;
esac
mkdir -p "${archive%.*}"
exit 0
`

// FakePeaZip is a shell script that behaves like the PeaZip CLI for the
// purpose of tests: it creates the target folder and checks passwords.
type FakePeaZip struct {
	Dir string
}

// NewFakePeaZip creates a fake archiver in dir.
func NewFakePeaZip(dir string) *FakePeaZip {
	return &FakePeaZip{Dir: dir}
}

// Install writes the script and returns its path.
func (f *FakePeaZip) Install() (string, error) {
	if err := os.MkdirAll(f.Dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(f.Dir, "peazip")
	if err := os.WriteFile(path, []byte(fakePeaZipScript), 0o755); err != nil {
		return "", err
	}
	return path, nil
}

// Call is one recorded archiver invocation.
type Call struct {
	Archive  string
	Password string
}

// Calls returns the invocations recorded so far.
func (f *FakePeaZip) Calls() ([]Call, error) {
	file, err := os.Open(filepath.Join(f.Dir, "calls.log"))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var calls []Call
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		archive, password, _ := strings.Cut(scanner.Text(), "|")
		calls = append(calls, Call{Archive: archive, Password: password})
	}
	return calls, scanner.Err()
}

// ExtractedDir returns the folder the fake archiver creates for archive.
func ExtractedDir(archive string) string {
	return strings.TrimSuffix(archive, filepath.Ext(archive))
}
