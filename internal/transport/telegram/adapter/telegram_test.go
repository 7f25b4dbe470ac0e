package adapter

import (
	"strings"
	"testing"
	"unicode/utf8"

	tele "gopkg.in/telebot.v4"

	kit "timecardbot/internal/transport"
)

func TestSplitTelegramTextShort(t *testing.T) {
	t.Parallel()
	got := splitTelegramText("hello", 10, "")
	if len(got) != 1 || got[0] != "hello" {
		t.Fatalf("got %q", got)
	}
}

func TestSplitTelegramTextPrefersNewlines(t *testing.T) {
	t.Parallel()
	s := strings.Repeat("a", 6) + "\n" + strings.Repeat("b", 6)
	got := splitTelegramText(s, 10, "")
	if len(got) != 2 || got[0] != "aaaaaa" || got[1] != "bbbbbb" {
		t.Fatalf("got %q", got)
	}
}

func TestSplitTelegramTextRuneSafe(t *testing.T) {
	t.Parallel()
	s := strings.Repeat("é", 25)
	got := splitTelegramText(s, 10, "")
	if len(got) != 3 {
		t.Fatalf("chunks = %d", len(got))
	}
	for _, c := range got {
		if !utf8.ValidString(c) || utf8.RuneCountInString(c) > 10 {
			t.Fatalf("bad chunk %q", c)
		}
	}
	if strings.Join(got, "") != s {
		t.Fatalf("content lost")
	}
}

func TestSplitTelegramTextHTML(t *testing.T) {
	t.Parallel()
	s := "abcdef<b>bold</b>"
	got := splitTelegramText(s, 8, "HTML")
	if got[0] != "abcdef" {
		t.Fatalf("first chunk %q split inside a tag", got[0])
	}
}

func TestToUpdate(t *testing.T) {
	t.Parallel()
	m := &tele.Message{
		ID:       5,
		ThreadID: 3,
		Text:     "yes",
		Chat:     &tele.Chat{ID: -100, Type: tele.ChatSuperGroup},
		Sender:   &tele.User{ID: 42, Username: "ann"},
	}
	up, ok := toUpdate(m)
	if !ok || up.Kind != kit.UpdateMessage {
		t.Fatalf("toUpdate = %+v, %v", up, ok)
	}
	want := kit.Message{ID: 5, ChatID: -100, ThreadID: 3, FromID: 42, FromUsername: "ann", Text: "yes", IsGroup: true}
	if *up.Message != want {
		t.Fatalf("message = %+v", *up.Message)
	}
	if _, ok := toUpdate(nil); ok {
		t.Fatalf("nil message accepted")
	}
}

func TestMenuCommandsLimits(t *testing.T) {
	t.Parallel()
	cmds := []kit.BotCommand{{Command: ""}, {Command: "times"}, {Command: "help", Description: strings.Repeat("x", 300)}}
	got := menuCommands(cmds)
	if len(got) != 2 || got[0].Description != "times" || len(got[1].Description) != 256 {
		t.Fatalf("got %+v", got)
	}
	if menuHash(got) == menuHash(got[:1]) {
		t.Fatalf("hash ignores entries")
	}
}
