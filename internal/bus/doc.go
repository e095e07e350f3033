// Package bus exposes search providers on the D-Bus session bus as
// org.gnome.Shell.SearchProvider2 objects.
package bus
