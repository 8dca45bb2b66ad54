package workspace

import "testing"

func TestApply_WrapsSelection(t *testing.T) {
	cases := []struct {
		cmd   Command
		want  string
		caret int
	}{
		{Bold, "a **bc** d", 8},
		{Italic, "a *bc* d", 6},
		{Underline, "a _bc_ d", 6},
	}
	for _, tc := range cases {
		t.Run(tc.cmd.String(), func(t *testing.T) {
			b := Buffer{Text: "a bc d", SelStart: 2, SelEnd: 4}
			got := Apply(tc.cmd, 0, b)
			if got.Text != tc.want {
				t.Errorf("Text = %q, want %q", got.Text, tc.want)
			}
			if got.HasSelection() {
				t.Error("selection should be cleared")
			}
			if got.Caret != tc.caret {
				t.Errorf("Caret = %d", got.Caret)
			}
		})
	}
}

func TestApply_ReversedSelection(t *testing.T) {
	got := Apply(Bold, 0, Buffer{Text: "xyz", SelStart: 3, SelEnd: 1})
	if got.Text != "x**yz**" || got.Caret != 7 {
		t.Errorf("got %+v", got)
	}
}

func TestApply_NoSelectionIsNoop(t *testing.T) {
	b := Buffer{Text: "plain", Caret: 2}
	for _, cmd := range []Command{Bold, Italic, Underline} {
		if got := Apply(cmd, 0, b); got != b {
			t.Errorf("%s changed buffer: %+v", cmd, got)
		}
	}
}

func TestApply_Heading(t *testing.T) {
	b := Buffer{Text: "ab", Caret: 1}
	for level, want := range map[int]string{1: "a\n# b", 2: "a\n## b", 3: "a\n### b"} {
		got := Apply(Heading, level, b)
		if got.Text != want {
			t.Errorf("level %d: Text = %q, want %q", level, got.Text, want)
		}
		if got.Caret != 1+len(want)-2 {
			t.Errorf("level %d: Caret = %d", level, got.Caret)
		}
	}
}

func TestInsert_ClampsCaret(t *testing.T) {
	got := Buffer{Text: "ab", Caret: 99}.Insert("!")
	if got.Text != "ab!" || got.Caret != 3 {
		t.Errorf("got %+v", got)
	}
}

func TestFocusRing(t *testing.T) {
	if FocusList.Next() != FocusTitle || FocusTitle.Next() != FocusBody || FocusBody.Next() != FocusList {
		t.Error("unexpected focus order")
	}
	if Focus(42).Next() != FocusList {
		t.Error("unknown focus should reset to list")
	}
}
