package evaluation

import "testing"

func TestResultSet_AddPreservesOrderAndDedups(t *testing.T) {
	rs := NewResultSet()
	rs.Add(3, Result{UID: 3})
	rs.Add(1, Result{UID: 1})
	rs.Add(3, Result{UID: 3, Platform: "updated"})

	if rs.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", rs.Len())
	}
	if got := rs.UIDs; got[0] != 3 || got[1] != 1 {
		t.Fatalf("UIDs = %v, want [3 1]", got)
	}
	result, ok := rs.Get(3)
	if !ok || result.Platform != "updated" {
		t.Fatalf("re-adding uid 3 should overwrite in place, got %+v", result)
	}
}

func TestResultSet_GetMissing(t *testing.T) {
	rs := NewResultSet()
	if _, ok := rs.Get(42); ok {
		t.Fatalf("expected missing uid to report not-found")
	}
}

func TestAddAccountResult_PreservesInsertionOrder(t *testing.T) {
	var r Result
	r.AddAccountResult("account_2", AccountResult{AccountID: "account_2"})
	r.AddAccountResult("account_1", AccountResult{AccountID: "account_1"})
	r.AddAccountResult("account_2", AccountResult{AccountID: "account_2", Success: true})

	if len(r.AccountOrder) != 2 {
		t.Fatalf("AccountOrder = %v, want 2 entries", r.AccountOrder)
	}
	if r.AccountOrder[0] != "account_2" || r.AccountOrder[1] != "account_1" {
		t.Fatalf("AccountOrder = %v, want [account_2 account_1]", r.AccountOrder)
	}
	if !r.AccountResults["account_2"].Success {
		t.Fatalf("expected re-added account result to overwrite in place")
	}
}

func TestZeroScored(t *testing.T) {
	result := ZeroScored(7, PlatformError, []string{"b1", "b2"})
	if result.UID != 7 || result.Platform != PlatformError {
		t.Fatalf("ZeroScored uid/platform = %d/%s", result.UID, result.Platform)
	}
	if len(result.AggregatedScores) != 2 || result.AggregatedScores["b1"] != 0 || result.AggregatedScores["b2"] != 0 {
		t.Fatalf("AggregatedScores = %v, want all-zero for b1,b2", result.AggregatedScores)
	}
}

func TestErrorResult(t *testing.T) {
	res := ErrorResult("account_1", "boom", []string{"b1"})
	if res.Success {
		t.Fatalf("ErrorResult should never be successful")
	}
	if res.Error != "boom" {
		t.Fatalf("Error = %q, want boom", res.Error)
	}
	if res.Scores["b1"] != 0 {
		t.Fatalf("Scores[b1] = %v, want 0", res.Scores["b1"])
	}
}
