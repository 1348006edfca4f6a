package repository

import (
	"strings"
	"testing"
)

func TestEveryUpdateIsVersioned(t *testing.T) {
	queries := map[string]string{
		"place":    placeOnTestQuery,
		"status":   setStatusQuery,
		"contract": signContractQuery,
		"extend":   extendQuery,
		"notes":    updateNotesQuery,
		"location": updateLocationQuery,
	}
	for name, query := range queries {
		if !strings.Contains(query, "version = $2") {
			t.Errorf("%s must compare the version", name)
		}
		if !strings.Contains(query, "version = version + 1") {
			t.Errorf("%s must bump the version", name)
		}
	}
}

func TestPlacementOnlyFromClean(t *testing.T) {
	if !strings.Contains(placeOnTestQuery, "status = 'clean'") {
		t.Fatal("placement must be guarded by the clean status")
	}
	if !strings.Contains(placeOnTestQuery, "test_start_date = $7") {
		t.Fatal("placement must stamp the test start")
	}
}

func TestUpdatedRowsAreReturnedWithJoins(t *testing.T) {
	if !strings.HasPrefix(strings.TrimSpace(extendQuery), "WITH c AS (") {
		t.Fatal("updates should be wrapped so callers get joined rows")
	}
	if !strings.Contains(extendQuery, "JOIN qr_codes q") {
		t.Fatal("missing code join")
	}
}
