package notify

import (
	"context"
	"strings"
	"testing"

	"github.com/smith3v/tg-journal-bot/pkg/internal/testutil"
	"github.com/smith3v/tg-journal-bot/pkg/logger"
	"github.com/smith3v/tg-journal-bot/pkg/reminders"
)

func TestRemindMentionsUser(t *testing.T) {
	logger.SetLogLevel(logger.ERROR)
	client := testutil.NewTelegramClient()
	client.Respond("getChatMember", testutil.ChatMemberResponse(7, "member"))
	n := New(testutil.NewTelegramBot(t, client))

	err := n.Remind(context.Background(), reminders.Intent{UserID: 7, ServerID: -100, DisplayName: "Ada L."})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := client.LastText(t)
	if !strings.HasPrefix(got, "[Ada L\\.](tg://user?id=7), you haven't submitted") {
		t.Fatalf("unexpected reminder text %q", got)
	}
	mode, _, _ := client.Requests("sendMessage")[0].Field(t, "parse_mode")
	if mode != "MarkdownV2" {
		t.Fatalf("expected MarkdownV2, got %q", mode)
	}
}

func TestRemindSkipsDepartedMembers(t *testing.T) {
	logger.SetLogLevel(logger.ERROR)
	for _, status := range []string{"left", "kicked"} {
		client := testutil.NewTelegramClient()
		client.Respond("getChatMember", testutil.ChatMemberResponse(7, status))
		n := New(testutil.NewTelegramBot(t, client))

		if err := n.Remind(context.Background(), reminders.Intent{UserID: 7, ServerID: -100}); err != nil {
			t.Fatalf("expected %s member to be skipped silently, got %v", status, err)
		}
		if sent := client.Requests("sendMessage"); len(sent) != 0 {
			t.Fatalf("expected no message for %s member, got %d", status, len(sent))
		}
	}
}

func TestRemindSkipsUnknownChat(t *testing.T) {
	logger.SetLogLevel(logger.ERROR)
	client := testutil.NewTelegramClient()
	client.Respond("getChatMember", `{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`)
	n := New(testutil.NewTelegramBot(t, client))

	if err := n.Remind(context.Background(), reminders.Intent{UserID: 7, ServerID: -100}); err != nil {
		t.Fatalf("expected unresolved chat to be skipped, got %v", err)
	}
	if sent := client.Requests("sendMessage"); len(sent) != 0 {
		t.Fatalf("expected no message, got %d", len(sent))
	}
}

func TestRemindInPrivateChatSkipsMembershipLookup(t *testing.T) {
	client := testutil.NewTelegramClient()
	n := New(testutil.NewTelegramBot(t, client))

	if err := n.Remind(context.Background(), reminders.Intent{UserID: 7, ServerID: 7, DisplayName: "Ada"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(client.Requests("getChatMember")) != 0 {
		t.Fatalf("expected no membership lookup")
	}
	if len(client.Requests("sendMessage")) != 1 {
		t.Fatalf("expected one reminder")
	}
}

func TestRemindSwallowsForbidden(t *testing.T) {
	logger.SetLogLevel(logger.ERROR)
	client := testutil.NewTelegramClient()
	client.Respond("sendMessage", `{"ok":false,"error_code":403,"description":"Forbidden: bot was blocked by the user"}`)
	n := New(testutil.NewTelegramBot(t, client))

	if err := n.Remind(context.Background(), reminders.Intent{UserID: 7, ServerID: 7}); err != nil {
		t.Fatalf("expected blocked user to be skipped, got %v", err)
	}
}

func TestBroadcastGroupsMentions(t *testing.T) {
	logger.SetLogLevel(logger.ERROR)
	client := testutil.NewTelegramClient()
	client.Respond("getChatMember", testutil.ChatMemberResponse(1, "member"))
	n := New(testutil.NewTelegramBot(t, client))

	err := n.Broadcast(context.Background(), -100, 0, []reminders.Intent{
		{UserID: 1, ServerID: -100, DisplayName: "Ada", Broadcast: true},
		{UserID: 2, ServerID: -100, DisplayName: "", Broadcast: true},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sent := client.SentTexts(t)
	if len(sent) != 1 {
		t.Fatalf("expected one grouped message, got %d", len(sent))
	}
	want := "[Ada](tg://user?id=1) [journaler](tg://user?id=2)\nMake sure you submit your journal entry before the end of the day\\!"
	if sent[0] != want {
		t.Fatalf("unexpected broadcast %q", sent[0])
	}
}

func TestBroadcastWithNobodyLeftSendsNothing(t *testing.T) {
	logger.SetLogLevel(logger.ERROR)
	client := testutil.NewTelegramClient()
	client.Respond("getChatMember", testutil.ChatMemberResponse(1, "left"))
	n := New(testutil.NewTelegramBot(t, client))

	err := n.Broadcast(context.Background(), -100, 0, []reminders.Intent{{UserID: 1, ServerID: -100, Broadcast: true}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(client.Requests("sendMessage")) != 0 {
		t.Fatalf("expected no message")
	}
}
