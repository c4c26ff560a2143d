// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package option

import (
	"strings"
)

// parseList splits a comma-separated list, dropping empty items.
func parseList(list string) []string {
	var items []string
	for _, l := range strings.Split(list, ",") {
		l = strings.TrimSpace(l)
		if l != "" {
			items = append(items, l)
		}
	}
	return items
}
