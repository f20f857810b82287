package event_processor

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"instagram-bot/internal/accounts"
	"instagram-bot/internal/follower_gate"
	"instagram-bot/internal/keywords"
	"instagram-bot/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// --- in-memory fakes ---

type fakeUserRepo struct {
	nextID int64
	byPSID map[string]*models.User
	byIGID map[string]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byPSID: map[string]*models.User{}, byIGID: map[string]*models.User{}}
}

func (f *fakeUserRepo) FindOrCreateByPSID(psid string, seenAt time.Time) (*models.User, error) {
	if u, ok := f.byPSID[psid]; ok {
		u.LastInteractionAt = seenAt
		return u, nil
	}
	f.nextID++
	p := psid
	u := &models.User{ID: f.nextID, PSID: &p, CreatedAt: seenAt, LastInteractionAt: seenAt, ConversationState: models.ConversationStateIdle}
	f.byPSID[psid] = u
	return u, nil
}

func (f *fakeUserRepo) FindOrCreateByInstagramID(igID, username string, seenAt time.Time) (*models.User, error) {
	if u, ok := f.byIGID[igID]; ok {
		u.LastInteractionAt = seenAt
		u.InstagramUsername = &username
		return u, nil
	}
	f.nextID++
	id := igID
	name := username
	u := &models.User{ID: f.nextID, InstagramID: &id, InstagramUsername: &name, CreatedAt: seenAt, LastInteractionAt: seenAt, ConversationState: models.ConversationStateIdle}
	f.byIGID[igID] = u
	return u, nil
}

func (f *fakeUserRepo) GetByPSID(psid string) (*models.User, error) {
	return f.byPSID[psid], nil
}

type fakeMessageRepo struct {
	messages []models.Message
}

func (f *fakeMessageRepo) SaveMessage(msg *models.Message) error {
	msg.ID = int64(len(f.messages) + 1)
	f.messages = append(f.messages, *msg)
	return nil
}

type fakeCommentRepo struct {
	comments []models.Comment
	seen     map[string]bool
}

func newFakeCommentRepo() *fakeCommentRepo {
	return &fakeCommentRepo{seen: map[string]bool{}}
}

func (f *fakeCommentRepo) SaveComment(c *models.Comment) (bool, error) {
	if f.seen[c.CommentID] {
		return false, nil
	}
	f.seen[c.CommentID] = true
	c.ID = int64(len(f.comments) + 1)
	f.comments = append(f.comments, *c)
	return true, nil
}

type sentItem struct {
	kind    string // "dm" or "private_reply"
	pageID  string
	target  string // PSID or comment id
	text    string
}

type fakeSender struct {
	sent []sentItem
}

func (f *fakeSender) SendMessage(ctx context.Context, account accounts.Account, recipientPSID, text string) error {
	f.sent = append(f.sent, sentItem{kind: "dm", pageID: account.PageID, target: recipientPSID, text: text})
	return nil
}

func (f *fakeSender) SendPrivateReply(ctx context.Context, account accounts.Account, commentID, text string) error {
	f.sent = append(f.sent, sentItem{kind: "private_reply", pageID: account.PageID, target: commentID, text: text})
	return nil
}

type fakeGate struct {
	follower bool
}

func (f fakeGate) IsFollower(ctx context.Context, instagramUserID string, account accounts.Account) (bool, error) {
	return f.follower, nil
}

type fixture struct {
	processor *Processor
	users     *fakeUserRepo
	messages  *fakeMessageRepo
	comments  *fakeCommentRepo
	sender    *fakeSender
}

func newFixture(t *testing.T, table keywords.Table, gate follower_gate.Checker) *fixture {
	t.Helper()
	users := newFakeUserRepo()
	messages := &fakeMessageRepo{}
	comments := newFakeCommentRepo()
	sender := &fakeSender{}
	registry := accounts.NewRegistry([]accounts.Account{{PageID: "page-1", AccessToken: "token-1"}})
	if gate == nil {
		gate = follower_gate.AlwaysFollower{}
	}
	return &fixture{
		processor: NewProcessor(registry, table, users, messages, comments, sender, gate, zap.NewNop()),
		users:     users,
		messages:  messages,
		comments:  comments,
		sender:    sender,
	}
}

func commentEntry(pageID, commentID, mediaID, text, igID, username string) models.WebhookEntry {
	return models.WebhookEntry{
		ID: pageID,
		Changes: []models.Change{{
			Field: "comments",
			Value: models.ChangeValue{
				ID:          commentID,
				Text:        text,
				Media:       &models.MediaRef{ID: mediaID, MediaType: "REEL"},
				From:        &models.EventUser{ID: igID, Username: username},
				CreatedTime: time.Now().UnixMilli(),
			},
		}},
	}
}

func dmEntry(pageID, psid, text string) models.WebhookEntry {
	return models.WebhookEntry{
		ID: pageID,
		Messaging: []models.MessagingEvent{{
			Sender:    models.Participant{ID: psid},
			Recipient: models.Participant{ID: pageID},
			Timestamp: time.Now().UnixMilli(),
			Message:   &models.MessageEvent{Text: text},
		}},
	}
}

// --- tests ---

func TestProcessPayload_UnroutableEntryDoesNotAbortBatch(t *testing.T) {
	fx := newFixture(t, keywords.Table{
		keywords.DefaultKey: {Keywords: []string{"link"}, PrivateReplyMessage: "here: x"},
	}, nil)

	payload := &models.WebhookPayload{Entry: []models.WebhookEntry{
		commentEntry("unknown-page", "c1", "m1", "send the link", "ig1", "alice"),
		commentEntry("page-1", "c2", "m1", "send the link", "ig2", "bob"),
	}}
	fx.processor.ProcessPayload(context.Background(), payload)

	require.Len(t, fx.comments.comments, 1)
	assert.Equal(t, "c2", fx.comments.comments[0].CommentID)
	require.Len(t, fx.sender.sent, 1)
	assert.Equal(t, "private_reply", fx.sender.sent[0].kind)
	assert.Equal(t, "c2", fx.sender.sent[0].target)
}

func TestProcessPayload_InboundDM_FindOrCreateIdempotence(t *testing.T) {
	fx := newFixture(t, keywords.Table{}, nil)

	payload := &models.WebhookPayload{Entry: []models.WebhookEntry{
		dmEntry("page-1", "psid-1", "what products do you have?"),
		dmEntry("page-1", "psid-1", "anything else?"),
	}}
	fx.processor.ProcessPayload(context.Background(), payload)

	// Exactly one user row, two inbound message rows, two replies.
	assert.Len(t, fx.users.byPSID, 1)
	inbound := 0
	for _, m := range fx.messages.messages {
		if m.MessageType == models.MessageTypeInboundDM {
			inbound++
		}
	}
	assert.Equal(t, 2, inbound)
	require.Len(t, fx.sender.sent, 2)
}

func TestProcessPayload_DMReplyTriggers(t *testing.T) {
	cases := []struct {
		text string
		want string
	}{
		{"hello there", "Hi there, friend! How can I help you today?"},
		{"I need HELP", "I can help with common questions. Try asking about 'products' or 'support'."},
		{"tell me about products", "We offer a range of exciting products! Visit our website to learn more: example.com"},
		{"what is the weather", defaultDMReply},
	}

	for _, tc := range cases {
		fx := newFixture(t, keywords.Table{}, nil)
		payload := &models.WebhookPayload{Entry: []models.WebhookEntry{dmEntry("page-1", "psid-1", tc.text)}}
		fx.processor.ProcessPayload(context.Background(), payload)

		require.Len(t, fx.sender.sent, 1, "text: %q", tc.text)
		assert.Equal(t, tc.want, fx.sender.sent[0].text, "text: %q", tc.text)
	}
}

func TestProcessPayload_EchoMessageIgnored(t *testing.T) {
	fx := newFixture(t, keywords.Table{}, nil)

	entry := dmEntry("page-1", "psid-1", "hello")
	entry.Messaging[0].Message.IsEcho = true
	fx.processor.ProcessPayload(context.Background(), &models.WebhookPayload{Entry: []models.WebhookEntry{entry}})

	assert.Empty(t, fx.users.byPSID)
	assert.Empty(t, fx.messages.messages)
	assert.Empty(t, fx.sender.sent)
}

func TestProcessPayload_PostbackCreatesUserAndAcknowledges(t *testing.T) {
	fx := newFixture(t, keywords.Table{}, nil)

	entry := models.WebhookEntry{
		ID: "page-1",
		Messaging: []models.MessagingEvent{{
			Sender:    models.Participant{ID: "psid-9"},
			Recipient: models.Participant{ID: "page-1"},
			Timestamp: time.Now().UnixMilli(),
			Postback:  &models.PostbackEvent{Payload: "ORDER_STATUS"},
		}},
	}
	fx.processor.ProcessPayload(context.Background(), &models.WebhookPayload{Entry: []models.WebhookEntry{entry}})

	assert.Len(t, fx.users.byPSID, 1)
	require.Len(t, fx.messages.messages, 1)
	assert.Equal(t, models.MessageTypeInboundPostback, fx.messages.messages[0].MessageType)
	assert.Equal(t, "POSTBACK: ORDER_STATUS", *fx.messages.messages[0].MessageText)
	require.Len(t, fx.sender.sent, 1)
	assert.Equal(t, "You chose: ORDER_STATUS. How else can I assist?", fx.sender.sent[0].text)
}

func TestProcessPayload_CommentMissingMediaIDIsSkipped(t *testing.T) {
	fx := newFixture(t, keywords.Table{
		keywords.DefaultKey: {Keywords: []string{"link"}, PrivateReplyMessage: "here"},
	}, nil)

	entry := models.WebhookEntry{
		ID: "page-1",
		Changes: []models.Change{{
			Field: "comments",
			Value: models.ChangeValue{
				ID:   "c1",
				Text: "send the link",
				From: &models.EventUser{ID: "ig1", Username: "alice"},
				// media absent
			},
		}},
	}
	fx.processor.ProcessPayload(context.Background(), &models.WebhookPayload{Entry: []models.WebhookEntry{entry}})

	assert.Empty(t, fx.comments.comments)
	assert.Empty(t, fx.sender.sent)
	assert.Empty(t, fx.users.byIGID)
}

func TestProcessPayload_CommentRendersTemplateForFollower(t *testing.T) {
	fx := newFixture(t, keywords.Table{
		"m1": {PrivateReplyMessage: "Hey {username}, grab it here!"},
	}, fakeGate{follower: true})

	entry := commentEntry("page-1", "c1", "m1", "totally unrelated text", "ig1", "alice")
	fx.processor.ProcessPayload(context.Background(), &models.WebhookPayload{Entry: []models.WebhookEntry{entry}})

	// Media-specific rule wins even though no keyword matched.
	require.Len(t, fx.sender.sent, 1)
	assert.Equal(t, "Hey alice, grab it here!", fx.sender.sent[0].text)
	require.Len(t, fx.comments.comments, 1)
	require.NotNil(t, fx.comments.comments[0].UserID)
}

func TestProcessPayload_CommentNonFollowerGetsFollowRequest(t *testing.T) {
	fx := newFixture(t, keywords.Table{
		"m1": {PrivateReplyMessage: "Hey {username}, grab it here!"},
	}, fakeGate{follower: false})

	entry := commentEntry("page-1", "c1", "m1", "any text", "ig1", "alice")
	fx.processor.ProcessPayload(context.Background(), &models.WebhookPayload{Entry: []models.WebhookEntry{entry}})

	require.Len(t, fx.sender.sent, 1)
	assert.True(t, strings.HasPrefix(fx.sender.sent[0].text, "Hi @alice, thanks for your comment!"))
	assert.NotContains(t, fx.sender.sent[0].text, "grab it here")
}

func TestProcessPayload_DuplicateCommentDeliverySkipsAutomation(t *testing.T) {
	fx := newFixture(t, keywords.Table{
		"m1": {PrivateReplyMessage: "reply"},
	}, nil)

	entry := commentEntry("page-1", "c1", "m1", "text", "ig1", "alice")
	payload := &models.WebhookPayload{Entry: []models.WebhookEntry{entry, entry}}
	fx.processor.ProcessPayload(context.Background(), payload)

	assert.Len(t, fx.comments.comments, 1)
	assert.Len(t, fx.sender.sent, 1)
}

func TestProcessPayload_CommentWithoutRuleIsLoggedOnly(t *testing.T) {
	fx := newFixture(t, keywords.Table{}, nil)

	entry := commentEntry("page-1", "c1", "m1", "nice post", "ig1", "alice")
	fx.processor.ProcessPayload(context.Background(), &models.WebhookPayload{Entry: []models.WebhookEntry{entry}})

	assert.Len(t, fx.comments.comments, 1)
	assert.Empty(t, fx.sender.sent)
}

func TestProcessPayload_MentionIsDetectionOnly(t *testing.T) {
	fx := newFixture(t, keywords.Table{
		keywords.DefaultKey: {Keywords: []string{"link"}, PrivateReplyMessage: "here"},
	}, nil)

	entry := models.WebhookEntry{
		ID: "page-1",
		Changes: []models.Change{{
			Field: "mentions",
			Value: models.ChangeValue{
				Item: &models.MentionItem{ID: "story-1", MediaType: "STORY"},
				User: &models.EventUser{ID: "ig1", Username: "alice"},
			},
		}},
	}
	fx.processor.ProcessPayload(context.Background(), &models.WebhookPayload{Entry: []models.WebhookEntry{entry}})

	assert.Empty(t, fx.sender.sent)
	assert.Empty(t, fx.comments.comments)
}

func TestResolvePageID_PriorityOrder(t *testing.T) {
	withID := models.WebhookEntry{ID: "explicit", Messaging: []models.MessagingEvent{{Recipient: models.Participant{ID: "recipient"}}}}
	assert.Equal(t, "explicit", resolvePageID(&withID))

	fromMessaging := models.WebhookEntry{Messaging: []models.MessagingEvent{{Recipient: models.Participant{ID: "recipient"}}}}
	assert.Equal(t, "recipient", resolvePageID(&fromMessaging))

	fromChange := models.WebhookEntry{Changes: []models.Change{{Value: models.ChangeValue{PageID: "change-page"}}}}
	assert.Equal(t, "change-page", resolvePageID(&fromChange))

	assert.Equal(t, "", resolvePageID(&models.WebhookEntry{}))
}

func TestProcessPayload_RawPayloadIsStoredWithComment(t *testing.T) {
	fx := newFixture(t, keywords.Table{}, nil)

	entry := commentEntry("page-1", "c1", "m1", "nice post", "ig1", "alice")
	fx.processor.ProcessPayload(context.Background(), &models.WebhookPayload{Entry: []models.WebhookEntry{entry}})

	require.Len(t, fx.comments.comments, 1)
	raw := fx.comments.comments[0].RawPayload
	require.NotNil(t, raw)

	var change models.Change
	require.NoError(t, json.Unmarshal([]byte(*raw), &change))
	assert.Equal(t, "comments", change.Field)
	assert.Equal(t, "c1", change.Value.ID)
}
