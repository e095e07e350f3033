package launcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeDesktopEntry(t *testing.T, dataDir, id, content string) string {
	t.Helper()
	dir := filepath.Join(dataDir, "applications")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, id)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const ideaEntry = `[Desktop Entry]
Version=1.0
Type=Application
Name=IntelliJ IDEA Ultimate
Name[de]=IntelliJ IDEA
Icon=/opt/idea/bin/idea.svg
Exec="/opt/idea/bin/idea.sh" %f
Comment=Capable & Ergonomic IDE for JVM # not a comment
Categories=Development;IDE;

[Desktop Action new-window]
Name=New Window
`

func TestFindAppIn(t *testing.T) {
	userDir := t.TempDir()
	systemDir := t.TempDir()
	path := writeDesktopEntry(t, systemDir, "jetbrains-idea.desktop", ideaEntry)

	app, err := FindAppIn([]string{userDir, systemDir}, "jetbrains-idea.desktop")
	require.NoError(t, err)
	assert.Equal(t, "jetbrains-idea.desktop", app.DesktopID)
	assert.Equal(t, "IntelliJ IDEA Ultimate", app.Name)
	assert.Equal(t, "/opt/idea/bin/idea.svg", app.Icon)
	assert.Equal(t, path, app.File)
}

func TestFindAppIn_UserEntryWins(t *testing.T) {
	userDir := t.TempDir()
	systemDir := t.TempDir()
	writeDesktopEntry(t, systemDir, "code.desktop", "[Desktop Entry]\nName=Code\nIcon=code\n")
	writeDesktopEntry(t, userDir, "code.desktop", "[Desktop Entry]\nName=My Code\nIcon=code\n")

	app, err := FindAppIn([]string{userDir, systemDir}, "code.desktop")
	require.NoError(t, err)
	assert.Equal(t, "My Code", app.Name)
}

func TestFindAppIn_NotFound(t *testing.T) {
	_, err := FindAppIn([]string{t.TempDir()}, "jetbrains-clion.desktop")
	assert.ErrorIs(t, err, ErrAppNotFound)
}

func TestFindAppIn_Hidden(t *testing.T) {
	userDir := t.TempDir()
	systemDir := t.TempDir()
	writeDesktopEntry(t, userDir, "code.desktop", "[Desktop Entry]\nName=Code\nHidden=true\n")
	writeDesktopEntry(t, systemDir, "code.desktop", "[Desktop Entry]\nName=Code\n")

	_, err := FindAppIn([]string{userDir, systemDir}, "code.desktop")
	assert.ErrorIs(t, err, ErrAppNotFound)
}

func TestDataDirs(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/home/u/.data")
	t.Setenv("XDG_DATA_DIRS", "/a:/b")
	assert.Equal(t, []string{"/home/u/.data", "/a", "/b"}, DataDirs())

	t.Setenv("XDG_DATA_HOME", "")
	t.Setenv("XDG_DATA_DIRS", "")
	t.Setenv("HOME", "/home/u")
	assert.Equal(t, []string{"/home/u/.local/share", "/usr/local/share", "/usr/share"}, DataDirs())
}

func TestFileURI(t *testing.T) {
	assert.Equal(t, "file:///home/u/code/foo", FileURI("/home/u/code/foo"))
	assert.Equal(t, "file:///home/u/my%20project", FileURI("/home/u/my project"))
}

func TestCommandLauncher_Command(t *testing.T) {
	l := NewCommandLauncher(nil)
	app := App{DesktopID: "code.desktop", File: "/usr/share/applications/code.desktop"}

	assert.Equal(t,
		[]string{"gio", "launch", "/usr/share/applications/code.desktop", "file:///srv/app"},
		l.Command(app, "file:///srv/app"))
	assert.Equal(t,
		[]string{"gio", "launch", "/usr/share/applications/code.desktop"},
		l.Command(app))
}

func TestCommandLauncher_Launch(t *testing.T) {
	marker := filepath.Join(t.TempDir(), "launched")
	l := NewCommandLauncher([]string{"sh", "-c", `printf '%s' "$1" > "` + marker + `"`, "sh"})

	// The desktop file path is passed as $1
	err := l.Launch(context.Background(), App{DesktopID: "x.desktop", File: "/apps/x.desktop"})
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		data, err := os.ReadFile(marker)
		return err == nil && string(data) == "/apps/x.desktop"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestCommandLauncher_LaunchErrors(t *testing.T) {
	l := NewCommandLauncher([]string{filepath.Join(t.TempDir(), "missing-binary")})

	err := l.Launch(context.Background(), App{DesktopID: "x.desktop", File: "/apps/x.desktop"})
	assert.Error(t, err)

	err = l.Launch(context.Background(), App{DesktopID: "x.desktop"})
	assert.Error(t, err, "no desktop entry")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = NewCommandLauncher(nil).Launch(ctx, App{File: "/apps/x.desktop"})
	assert.ErrorIs(t, err, context.Canceled)
}
