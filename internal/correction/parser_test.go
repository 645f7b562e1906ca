package correction_test

import (
	"errors"
	"strings"
	"testing"

	"burnish/internal/correction"
	"burnish/internal/services"
)

func TestParseReplyStructuredJSON(t *testing.T) {
	reply := `{
  "speakers": {"Speaker_1": "coach", "Speaker_2": "client"},
  "segments": [
    {"speaker": "Speaker_1", "text": "好，你好，我是你的教練。"},
    {"speaker": "Speaker_2", "text": "只是想說這個問題。"}
  ]
}`
	result, err := correction.ParseReply(reply, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Strategy != correction.StrategyStructured {
		t.Fatalf("expected structured strategy, got %q", result.Strategy)
	}
	if len(result.Utterances) != 2 {
		t.Fatalf("expected 2 utterances, got %d", len(result.Utterances))
	}
	if result.Utterances[0].Text != "好，你好，我是你的教練。" {
		t.Fatalf("unexpected text: %q", result.Utterances[0].Text)
	}
	if result.Speakers["Speaker_1"] != "coach" || result.Speakers["Speaker_2"] != "client" {
		t.Fatalf("unexpected speaker map: %v", result.Speakers)
	}
}

func TestParseReplyStructuredInsideCodeFence(t *testing.T) {
	reply := "Here is the corrected transcript:\n```json\n" +
		`{"speakers": {"Speaker_1": "coach"}, "segments": [{"speaker": "Speaker_1", "text": "好。"}]}` +
		"\n```"
	result, err := correction.ParseReply(reply, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Strategy != correction.StrategyStructured || len(result.Utterances) != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestParseReplyTranscriptStrategy(t *testing.T) {
	reply := strings.Join([]string{
		"教練：好，你好，我是你的教練。",
		"今天想談什麼？",
		"",
		"客戶：只是想說這個問題。",
	}, "\n")

	result, err := correction.ParseReply(reply, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Strategy != correction.StrategyTranscript {
		t.Fatalf("expected transcript strategy, got %q", result.Strategy)
	}
	if len(result.Utterances) != 2 {
		t.Fatalf("expected 2 utterances, got %d", len(result.Utterances))
	}
	if result.Utterances[0].Speaker != "教練" {
		t.Fatalf("unexpected speaker: %q", result.Utterances[0].Speaker)
	}
	if result.Utterances[0].Text != "好，你好，我是你的教練。 今天想談什麼？" {
		t.Fatalf("continuation line not folded: %q", result.Utterances[0].Text)
	}
}

func TestParseReplyTranscriptMergesSameSpeakerRuns(t *testing.T) {
	reply := strings.Join([]string{
		"Coach: first thought.",
		"Coach: second thought.",
		"Client: an answer.",
	}, "\n")
	result, err := correction.ParseReply(reply, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Utterances) != 2 {
		t.Fatalf("expected speaker-change split into 2, got %d", len(result.Utterances))
	}
	if result.Utterances[0].Text != "first thought. second thought." {
		t.Fatalf("unexpected merged text: %q", result.Utterances[0].Text)
	}
}

func TestParseReplyLinesStrategyTolerant(t *testing.T) {
	reply := strings.Join([]string{
		"Sure, here is the cleaned conversation:",
		"1. **[教練]**: 你最近過得怎麼樣？",
		"2. [客戶]: 還可以，就是工作有點累。",
		"3. 教練: 想多聊聊工作嗎？",
		"4. 客戶: 好。",
		"Hope this helps!",
	}, "\n")

	result, err := correction.ParseReply(reply, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Utterances) != 4 {
		t.Fatalf("expected 4 utterances, got %d", len(result.Utterances))
	}
	if result.Utterances[0].Speaker != "教練" {
		t.Fatalf("decoration not stripped: %q", result.Utterances[0].Speaker)
	}
	if result.Utterances[3].Text != "好。" {
		t.Fatalf("unexpected text: %q", result.Utterances[3].Text)
	}
}

func TestParseReplyStrategyOrdering(t *testing.T) {
	// Matches strategy 2, not strategy 1: no JSON anywhere, prefixed lines
	// with a continuation.
	reply := "Coach: hello there.\nand more.\nClient: hi."
	result, err := correction.ParseReply(reply, 2)
	if err != nil {
		t.Fatalf("expected strategy 2 to rescue the reply: %v", err)
	}
	if result.Strategy != correction.StrategyTranscript {
		t.Fatalf("expected transcript strategy, got %q", result.Strategy)
	}
}

func TestParseReplyCountToleranceBoundary(t *testing.T) {
	lines := make([]string, 8)
	for i := range lines {
		lines[i] = "Coach: line."
	}
	// 8 one-per-line utterances against 10 expected is exactly the 20% edge.
	result, err := correction.ParseReply(strings.Join(lines, "\n"), 10)
	if err != nil {
		t.Fatalf("expected 8/10 to pass tolerance: %v", err)
	}
	if result.Strategy != correction.StrategyLines {
		t.Fatalf("expected lines strategy, got %q", result.Strategy)
	}

	// 7/10 exceeds it; nothing else matches, so the reply is unusable.
	_, err = correction.ParseReply(strings.Join(lines[:7], "\n"), 10)
	if !errors.Is(err, services.ErrParse) {
		t.Fatalf("expected parse failure, got %v", err)
	}
}

func TestParseReplyRoleMapSurvivesBrokenSegments(t *testing.T) {
	reply := `{"speakers": {"Speaker_1": "教練", "Speaker_2": "客戶"}, "segments": []}`
	result, err := correction.ParseReply(reply, 5)
	if err != nil {
		t.Fatalf("expected role map salvage, got %v", err)
	}
	if result.HasText() {
		t.Fatalf("expected no utterances, got %d", len(result.Utterances))
	}
	if result.Speakers["Speaker_1"] != "教練" {
		t.Fatalf("unexpected speaker map: %v", result.Speakers)
	}
}

func TestParseReplyFailures(t *testing.T) {
	cases := []struct {
		name  string
		reply string
	}{
		{"empty", "   \n"},
		{"prose only", "I could not process this transcript, sorry."},
		{"json without known fields", `{"result": "ok"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := correction.ParseReply(tc.reply, 3)
			if !errors.Is(err, services.ErrParse) {
				t.Fatalf("expected ErrParse, got %v", err)
			}
		})
	}
}
