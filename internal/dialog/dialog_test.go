package dialog

import "testing"

// TestShow_ConfirmResolvesTrue tests the confirm path
func TestShow_ConfirmResolvesTrue(t *testing.T) {
	c := NewController(nil, nil)

	result := c.Show("Delete this prescription?", Options{Severe: true})

	st := c.State()
	if !st.Visible {
		t.Fatal("Expected dialog to be visible")
	}
	if st.Text != "Delete this prescription?" {
		t.Errorf("Expected dialog text, got '%s'", st.Text)
	}
	if st.OkayLabel != "OK" || st.CancelLabel != "Cancel" {
		t.Errorf("Expected default button labels, got '%s'/'%s'", st.OkayLabel, st.CancelLabel)
	}

	c.Confirm()

	outcome := <-result
	if !outcome.Confirmed || outcome.Dismissed {
		t.Errorf("Expected confirmed outcome, got %+v", outcome)
	}
	if c.State().Visible {
		t.Error("Expected dialog hidden after confirm")
	}
}

// TestShow_CancelResolvesFalse tests the cancel path
func TestShow_CancelResolvesFalse(t *testing.T) {
	c := NewController(nil, nil)

	result := c.Show("Withdraw 50.00?", Options{OkayLabel: "Withdraw"})
	c.Cancel()

	outcome := <-result
	if outcome.Confirmed || outcome.Dismissed {
		t.Errorf("Expected cancelled outcome, got %+v", outcome)
	}
}

// TestShow_ReplacementNotQueueing tests that a second Show replaces the first:
// exactly one visible dialog reflecting the second call's parameters, and the
// first waiter resolved as dismissed
func TestShow_ReplacementNotQueueing(t *testing.T) {
	c := NewController(nil, nil)

	first := c.Show("first", Options{})
	second := c.Show("second", Options{OkayLabel: "Yes"})

	outcome := <-first
	if !outcome.Dismissed {
		t.Errorf("Expected first waiter dismissed, got %+v", outcome)
	}

	st := c.State()
	if !st.Visible {
		t.Fatal("Expected one visible dialog")
	}
	if st.Text != "second" || st.OkayLabel != "Yes" {
		t.Errorf("Expected second dialog's parameters, got %+v", st)
	}

	c.Confirm()
	if out := <-second; !out.Confirmed {
		t.Errorf("Expected second waiter confirmed, got %+v", out)
	}
}

// TestHide_ResolvesPendingAsDismissed tests that force-hide never abandons a waiter
func TestHide_ResolvesPendingAsDismissed(t *testing.T) {
	c := NewController(nil, nil)

	result := c.Show("pending", Options{})
	c.Hide()

	select {
	case outcome := <-result:
		if !outcome.Dismissed {
			t.Errorf("Expected dismissed outcome, got %+v", outcome)
		}
	default:
		t.Fatal("Expected pending waiter to be resolved on Hide")
	}

	if c.State().Visible {
		t.Error("Expected dialog hidden")
	}
}

// TestDismiss_RespectsDismissable tests that only dismissable dialogs dismiss
func TestDismiss_RespectsDismissable(t *testing.T) {
	c := NewController(nil, nil)

	result := c.Show("must answer", Options{Dismissable: false})
	c.Dismiss()
	if !c.State().Visible {
		t.Error("Expected non-dismissable dialog to stay visible")
	}
	c.Confirm()
	<-result

	result = c.Show("optional", Options{Dismissable: true})
	c.Dismiss()
	if c.State().Visible {
		t.Error("Expected dismissable dialog to hide")
	}
	if outcome := <-result; !outcome.Dismissed {
		t.Errorf("Expected dismissed outcome, got %+v", outcome)
	}
}

// TestNotify_FiresOnStateChanges tests the re-render callback
func TestNotify_FiresOnStateChanges(t *testing.T) {
	count := 0
	c := NewController(nil, func() { count++ })

	result := c.Show("x", Options{})
	c.Confirm()
	<-result

	if count < 2 {
		t.Errorf("Expected notify on show and resolve, got %d calls", count)
	}
}
