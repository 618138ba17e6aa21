package generate

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// NextAvailable returns path if nothing exists there, otherwise the first
// free name with a numeric suffix inserted before the extension:
// script.py -> script-1.py -> script-2.py ...
func NextAvailable(path string) string {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return path
	}

	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)

	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s-%d%s", base, i, ext)
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
	}
}
