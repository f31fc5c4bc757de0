package classify

import (
	"testing"

	"github.com/viapip/pothos-todo-sub004/internal/nlq"
)

func TestClassifyKeywordRules(t *testing.T) {
	cases := []struct {
		text   string
		kind   nlq.IntentKind
		action nlq.IntentAction
	}{
		{"create a todo to buy milk", nlq.KindMutation, nlq.ActionCreate},
		{"add groceries to my list", nlq.KindMutation, nlq.ActionCreate},
		{"new task for tomorrow", nlq.KindMutation, nlq.ActionCreate},
		{"update the report todo", nlq.KindMutation, nlq.ActionUpdate},
		{"change the due date", nlq.KindMutation, nlq.ActionUpdate},
		{"delete all completed todos", nlq.KindMutation, nlq.ActionDelete},
		{"remove the old reminders", nlq.KindMutation, nlq.ActionDelete},
		{"count my pending todos", nlq.KindQuery, nlq.ActionCount},
		{"how many todos are overdue", nlq.KindQuery, nlq.ActionCount},
		{"find high priority todos", nlq.KindQuery, nlq.ActionSearch},
		{"search for todos about taxes", nlq.KindQuery, nlq.ActionSearch},
		{"show me high priority todos", nlq.KindQuery, nlq.ActionGet},
		{"list todos due this week", nlq.KindQuery, nlq.ActionGet},
		{"display completed tasks", nlq.KindQuery, nlq.ActionGet},
		{"get my overdue todos", nlq.KindQuery, nlq.ActionGet},
	}
	c := New()
	for _, tc := range cases {
		intent := c.Classify(tc.text, nlq.SessionContext{})
		if intent.Kind != tc.kind || intent.Action != tc.action {
			t.Fatalf("Classify(%q) = %s/%s, want %s/%s", tc.text, intent.Kind, intent.Action, tc.kind, tc.action)
		}
		if intent.Confidence != 0.9 {
			t.Fatalf("Classify(%q) confidence = %v", tc.text, intent.Confidence)
		}
	}
}

func TestClassifyFallsBackToQueryGet(t *testing.T) {
	c := New()
	intent := c.Classify("my pending todos for the week", nlq.SessionContext{})
	if intent.Kind != nlq.KindQuery || intent.Action != nlq.ActionGet {
		t.Fatalf("intent = %s/%s", intent.Kind, intent.Action)
	}
	if intent.Confidence != 0.6 {
		t.Fatalf("confidence = %v", intent.Confidence)
	}
}

func TestClassifyMutationWinsOverReadKeywords(t *testing.T) {
	c := New()
	intent := c.Classify("add a todo and count it", nlq.SessionContext{})
	if intent.Action != nlq.ActionCreate {
		t.Fatalf("action = %s", intent.Action)
	}
}

func TestClassifyMatchesWholeWordsOnly(t *testing.T) {
	c := New()
	// "additional" must not trigger the "add" rule.
	intent := c.Classify("are there additional details", nlq.SessionContext{})
	if intent.Action != nlq.ActionGet || intent.Confidence != 0.6 {
		t.Fatalf("intent = %s/%v", intent.Action, intent.Confidence)
	}
	// "renewed" must not trigger the "new" rule.
	intent = c.Classify("renewed subscriptions for march", nlq.SessionContext{})
	if intent.Action != nlq.ActionGet || intent.Confidence != 0.6 {
		t.Fatalf("intent = %s/%v", intent.Action, intent.Confidence)
	}
}

func TestClassifyIsCaseInsensitive(t *testing.T) {
	c := New()
	intent := c.Classify("CREATE a Todo to Buy Milk", nlq.SessionContext{})
	if intent.Action != nlq.ActionCreate {
		t.Fatalf("action = %s", intent.Action)
	}
}
