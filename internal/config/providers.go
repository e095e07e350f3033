package config

import (
	"sort"

	"github.com/lunaryorn/gnome-search-providers-jetbrains/internal/store"
)

// Family groups IDEs sharing a bus name
type Family struct {
	BusName  string
	ObjectNS string // Object path prefix of the family's providers
}

var (
	// JetBrains IDEs
	JetBrains = Family{
		BusName:  "de.swsnr.searchprovider.Jetbrains",
		ObjectNS: "/de/swsnr/searchprovider/jetbrains",
	}

	// VSCode and its rebuilds
	VSCode = Family{
		BusName:  "de.swsnr.searchprovider.VSCode",
		ObjectNS: "/de/swsnr/searchprovider/vscode",
	}
)

// Provider is the definition of one search provider
type Provider struct {
	Label           string // Human readable IDE name
	DesktopID       string // Desktop entry of the IDE
	RelativeObjPath string // Object path below the family namespace
	Family          Family
	Location        store.Location // Where the IDE keeps its recent projects
}

// ObjectPath returns the absolute D-Bus object path of the provider
func (p Provider) ObjectPath() string {
	return p.Family.ObjectNS + "/" + p.RelativeObjPath
}

func jetbrains(label, desktopID, relative, vendor, glob, filename string) Provider {
	return Provider{
		Label:           label,
		DesktopID:       desktopID,
		RelativeObjPath: relative,
		Family:          JetBrains,
		Location: store.Location{
			VendorDir:        vendor,
			ConfigGlob:       glob,
			ProjectsFilename: filename,
		},
	}
}

func vscode(label, desktopID, relative, configDir string) Provider {
	return Provider{
		Label:           label,
		DesktopID:       desktopID,
		RelativeObjPath: relative,
		Family:          VSCode,
		Location:        store.Location{ConfigDir: configDir},
	}
}

const (
	recentProjects  = "recentProjects.xml"
	recentSolutions = "recentSolutions.xml"
)

// Providers is the table of all known search providers
var Providers = []Provider{
	jetbrains("CLion (toolbox)", "jetbrains-clion.desktop", "toolbox/clion", "JetBrains", "CLion*", recentProjects),
	jetbrains("GoLand (toolbox)", "jetbrains-goland.desktop", "toolbox/goland", "JetBrains", "GoLand*", recentProjects),
	jetbrains("IDEA (toolbox)", "jetbrains-idea.desktop", "toolbox/idea", "JetBrains", "IntelliJIdea*", recentProjects),
	jetbrains("IDEA Community Edition (toolbox)", "jetbrains-idea-ce.desktop", "toolbox/ideace", "JetBrains", "IdeaIC*", recentProjects),
	jetbrains("PHPStorm (toolbox)", "jetbrains-phpstorm.desktop", "toolbox/phpstorm", "JetBrains", "PhpStorm*", recentProjects),
	jetbrains("PyCharm (toolbox)", "jetbrains-pycharm.desktop", "toolbox/pycharm", "JetBrains", "PyCharm*", recentProjects),
	jetbrains("Rider (toolbox)", "jetbrains-rider.desktop", "toolbox/rider", "JetBrains", "Rider*", recentSolutions),
	jetbrains("RubyMine (toolbox)", "jetbrains-rubymine.desktop", "toolbox/rubymine", "JetBrains", "RubyMine*", recentProjects),
	jetbrains("Android Studio (toolbox)", "jetbrains-studio.desktop", "toolbox/studio", "Google", "AndroidStudio*", recentProjects),
	jetbrains("WebStorm (toolbox)", "jetbrains-webstorm.desktop", "toolbox/webstorm", "JetBrains", "WebStorm*", recentProjects),
	vscode("Visual Studio Code", "code.desktop", "code", "Code"),
	vscode("VSCodium", "codium.desktop", "codium", "VSCodium"),
	vscode("Code - OSS", "code-oss.desktop", "codeoss", "Code - OSS"),
}

// Lookup returns the provider with the given desktop ID
func Lookup(desktopID string) (Provider, bool) {
	for _, p := range Providers {
		if p.DesktopID == desktopID {
			return p, true
		}
	}
	return Provider{}, false
}

// Labels returns the labels of all providers, sorted
func Labels() []string {
	labels := make([]string, 0, len(Providers))
	for _, p := range Providers {
		labels = append(labels, p.Label)
	}
	sort.Strings(labels)
	return labels
}

// BusNames returns the distinct bus names of providers in table order
func BusNames(providers []Provider) []string {
	seen := make(map[string]bool)
	var names []string
	for _, p := range providers {
		if !seen[p.Family.BusName] {
			seen[p.Family.BusName] = true
			names = append(names, p.Family.BusName)
		}
	}
	return names
}
