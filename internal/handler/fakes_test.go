package handler

import (
	"context"
	"fmt"
	"sync"
	"time"

	tele "gopkg.in/telebot.v3"

	"quads-bot/internal/service"
)

// fakeContext overrides the tele.Context methods the handlers use. Anything
// else panics on the nil embedded interface.
type fakeContext struct {
	tele.Context
	msg     *tele.Message
	args    []string
	replies []string
	opts    [][]interface{}
}

func (f *fakeContext) Message() *tele.Message { return f.msg }
func (f *fakeContext) Sender() *tele.User { return f.msg.Sender }
func (f *fakeContext) Chat() *tele.Chat { return f.msg.Chat }
func (f *fakeContext) Args() []string { return f.args }
func (f *fakeContext) Text() string { return f.msg.Text }

func (f *fakeContext) Reply(what interface{}, opts ...interface{}) error {
	f.replies = append(f.replies, fmt.Sprint(what))
	f.opts = append(f.opts, opts)
	return nil
}

type fakeAPI struct {
	mu        sync.Mutex
	sent      []string
	deleted   []int
	deleteErr error
	nextID    int
}

func (a *fakeAPI) Send(to tele.Recipient, what interface{}, _ ...interface{}) (*tele.Message, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.nextID++
	a.sent = append(a.sent, fmt.Sprint(what))
	chat, _ := to.(*tele.Chat)
	return &tele.Message{ID: 1000 + a.nextID, Chat: chat}, nil
}

func (a *fakeAPI) Delete(msg tele.Editable) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.deleteErr != nil {
		return a.deleteErr
	}
	if m, ok := msg.(*tele.Message); ok {
		a.deleted = append(a.deleted, m.ID)
	}
	return nil
}

func (a *fakeAPI) deletedIDs() []int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]int(nil), a.deleted...)
}

type fakeChecks struct {
	outcome   *service.Outcome
	err       error
	processed []service.Message
	zones     map[int64]string
}

func (f *fakeChecks) Process(_ context.Context, msg service.Message) (*service.Outcome, error) {
	f.processed = append(f.processed, msg)
	if f.err != nil {
		return nil, f.err
	}
	return f.outcome, nil
}

func (f *fakeChecks) SetTimezone(_ context.Context, userID int64, _ string, zone string) error {
	if f.zones == nil {
		f.zones = make(map[int64]string)
	}
	f.zones[userID] = zone
	return nil
}

type fakeLeaderboard struct {
	board string
	err   error
}

func (f *fakeLeaderboard) Render(context.Context) (string, error) {
	return f.board, f.err
}

type fakeFinder struct {
	zone string
	err  error
}

func (f *fakeFinder) At(float64, float64) (string, error) {
	return f.zone, f.err
}

type fakeAdmin struct {
	admin   int64
	stats   string
	cleared int64
}

func (f *fakeAdmin) SetAdmin(_ context.Context, userID int64) error {
	f.admin = userID
	return nil
}

func (f *fakeAdmin) Stats(context.Context) (string, error) {
	return f.stats, nil
}

func (f *fakeAdmin) Clear(context.Context) (int64, error) {
	return f.cleared, nil
}

type previewCall struct {
	date, zone, text string
}

type fakePreviewer struct {
	preview *service.Preview
	err     error
	calls   []previewCall
	digits  [2]string
}

func (f *fakePreviewer) Preview(_ context.Context, _ int64, _ time.Time, date, zone, text string) (*service.Preview, error) {
	f.calls = append(f.calls, previewCall{date, zone, text})
	return f.preview, f.err
}

func (f *fakePreviewer) DigitStrings(context.Context, int64, time.Time) ([2]string, string, error) {
	return f.digits, "Europe/London", nil
}

var (
	groupChat   = &tele.Chat{ID: -100123, Type: tele.ChatSuperGroup}
	privateChat = &tele.Chat{ID: 42, Type: tele.ChatPrivate}
	alice       = &tele.User{ID: 42, Username: "alice"}
)

func groupMessage(id int, text string) *tele.Message {
	return &tele.Message{
		ID:       id,
		Sender:   alice,
		Chat:     groupChat,
		Text:     text,
		Unixtime: time.Date(2022, time.March, 1, 22, 22, 0, 0, time.UTC).Unix(),
	}
}
