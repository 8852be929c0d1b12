package migrate

import (
	"bufio"
	"os"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const initMigration = "../../../../../migrations/000001_init.up.sql"

var createTableRe = regexp.MustCompile(`CREATE TABLE IF NOT EXISTS (\w+)`)

// Отзывы и жалобы никогда не удаляются, в том числе каскадом от магазина
func TestInitMigration_ReviewsAndComplaintsAreNotCascadeDeleted(t *testing.T) {
	f, err := os.Open(initMigration)
	require.NoError(t, err)
	defer f.Close()

	cascading := make(map[string]bool)
	table := ""
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if m := createTableRe.FindStringSubmatch(line); m != nil {
			table = m[1]
			continue
		}
		if strings.Contains(line, "REFERENCES") && strings.Contains(line, "ON DELETE CASCADE") {
			cascading[table] = true
		}
	}
	require.NoError(t, scanner.Err())

	for _, table := range []string{"reviews", "complaints", "complaint_details"} {
		assert.False(t, cascading[table], "%s must not be cascade deleted", table)
	}
}
