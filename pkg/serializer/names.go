package serializer

import (
	"strconv"
	"strings"

	"github.com/askiada/go-tipping-ensemble/pkg/schema"
)

// LegacyCommandFile is the second name the command table is written under.
const LegacyCommandFile = "latin_sh_file.txt"

// CommandFileName names the command table after the excluded elements and the ensemble size,
// for example lhs_no-nino_1000.txt.
func CommandFileName(excluded []schema.Element, size int) string {
	if len(excluded) == 0 {
		return "lhs_" + strconv.Itoa(size) + ".txt"
	}

	names := make([]string, len(excluded))
	for i, el := range excluded {
		names[i] = strings.ToLower(string(el))
	}

	return "lhs_no-" + strings.Join(names, "-") + "_" + strconv.Itoa(size) + ".txt"
}

// DefaultCommandFiles lists the names the command table is written under by default.
func DefaultCommandFiles(excluded []schema.Element, size int) []string {
	return []string{CommandFileName(excluded, size), LegacyCommandFile}
}
