package repository

import (
	"strings"
	"testing"
)

func TestListQueriesJoinOnlyOpenCycles(t *testing.T) {
	for name, query := range map[string]string{"list": listCodesQuery, "count": countCodesQuery, "get": selectCodes} {
		if !strings.Contains(query, "c.status <> 'completed'") {
			t.Fatalf("%s query must only join the non-completed cycle", name)
		}
	}
}

func TestDeleteNeverRemovesCodesWithHistory(t *testing.T) {
	if !strings.Contains(deleteCodeQuery, "NOT EXISTS (SELECT 1 FROM cycles c WHERE c.qr_code_id = q.id)") {
		t.Fatal("delete must be guarded by cycle history")
	}
}

func TestInsertBatchIsSingleStatement(t *testing.T) {
	if !strings.Contains(insertBatchQuery, "unnest($1::text[])") {
		t.Fatal("batch insert should insert all codes in one statement")
	}
}
