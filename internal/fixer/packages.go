// Package fixer diagnoses an existing script before regeneration: it probes
// the script in a sandboxed run, classifies failures, resolves missing
// modules to installable packages, and merges model-reviewed findings.
package fixer

import "sort"

// Dependency is a missing importable module resolved to its installable
// package name.
type Dependency struct {
	Module  string
	Package string
}

// modulePackages maps import names to package names where the two differ.
// Unmapped modules resolve to themselves.
var modulePackages = map[string]string{
	// python
	"cv2":      "opencv-python",
	"PIL":      "pillow",
	"yaml":     "pyyaml",
	"bs4":      "beautifulsoup4",
	"sklearn":  "scikit-learn",
	"dotenv":   "python-dotenv",
	"dateutil": "python-dateutil",
	"Crypto":   "pycryptodome",
	"serial":   "pyserial",
	"magic":    "python-magic",
	"usb":      "pyusb",
	"fitz":     "pymupdf",
	"docx":     "python-docx",
	"pptx":     "python-pptx",
	"OpenSSL":  "pyopenssl",
	"jwt":      "pyjwt",
	"github":   "pygithub",
	// javascript
	"fs-extra": "fs-extra",
}

// Resolve maps a module name to its installable package name, falling back
// to the module name itself when unmapped.
func Resolve(module string) Dependency {
	if pkg, ok := modulePackages[module]; ok {
		return Dependency{Module: module, Package: pkg}
	}
	return Dependency{Module: module, Package: module}
}

// dedupeDependencies returns deps with duplicate modules removed, sorted by
// module name for deterministic output.
func dedupeDependencies(deps []Dependency) []Dependency {
	seen := make(map[string]bool, len(deps))
	var out []Dependency
	for _, d := range deps {
		if seen[d.Module] {
			continue
		}
		seen[d.Module] = true
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Module < out[j].Module })
	return out
}
