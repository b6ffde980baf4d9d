package client

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/convosphere/convosphere-server/internal/proto"
	"github.com/convosphere/convosphere-server/internal/storage"
	"github.com/convosphere/convosphere-server/internal/utils"
)

const conversationsKeyPrefix = "convosphere_conversations_"

var (
	// ErrEmptyMessage rejects sends with no text and no media.
	ErrEmptyMessage = errors.New("empty message")
	// ErrUnknownMessage means the id was not found in the active log.
	ErrUnknownMessage = errors.New("unknown message id")
)

// Emitter pushes an intent event towards the relay.
type Emitter func(ctx context.Context, event string, data any) error

// Active identifies the conversation currently on screen.
type Active struct {
	ID          string
	DisplayName string
	Avatar      string
}

// GlobalConversation is the always-available global room pointer.
func GlobalConversation() Active {
	return Active{ID: proto.GlobalRoom, DisplayName: "Global Chat", Avatar: "🌐"}
}

// Reconciler maintains this client's belief of all conversation logs
// and merges the relay's event stream into it. Each client owns its
// own copies; convergence across clients happens only through replaying
// the same broadcasts. State is written back to the durable store on
// every transition, so a restart restores all logs without any server
// history (the relay keeps none).
type Reconciler struct {
	mx    sync.Mutex
	log   zerolog.Logger
	self  proto.User
	store storage.Store
	emit  Emitter

	conversations map[string]*Conversation
	active        Active
	users         map[string]proto.User
	pending       map[int64]struct{}
	typing        map[string]map[string]struct{}
}

// NewReconciler restores persisted state for the given user and starts
// at the global conversation.
func NewReconciler(ctx context.Context, self proto.User, store storage.Store, emit Emitter, logger *zerolog.Logger) (*Reconciler, error) {
	if self.Name == "" {
		return nil, errors.New("reconciler needs a named user")
	}

	r := &Reconciler{
		log:           logger.With().Str("component", "reconciler").Str("user", self.Name).Logger(),
		self:          self,
		store:         store,
		emit:          emit,
		conversations: make(map[string]*Conversation),
		active:        GlobalConversation(),
		users:         make(map[string]proto.User),
		pending:       make(map[int64]struct{}),
		typing:        make(map[string]map[string]struct{}),
	}

	if err := r.restore(ctx); err != nil {
		return nil, err
	}
	if _, ok := r.conversations[proto.GlobalRoom]; !ok {
		r.conversations[proto.GlobalRoom] = NewConversation()
	}
	return r, nil
}

func (r *Reconciler) restore(ctx context.Context) error {
	raw, err := r.store.Get(ctx, conversationsKeyPrefix+r.self.Name)
	switch {
	case errors.Is(err, storage.ErrNotFound):
	case err != nil:
		return err
	default:
		if err := json.Unmarshal(raw, &r.conversations); err != nil {
			return err
		}
	}

	stored, err := loadStoredUsers(ctx, r.store)
	if err != nil {
		return err
	}
	for _, u := range stored {
		if u.Name != r.self.Name {
			r.users[u.Name] = u
		}
	}
	return nil
}

// Self returns the local user's profile snapshot.
func (r *Reconciler) Self() proto.User {
	r.mx.Lock()
	defer r.mx.Unlock()
	return r.self
}

// Rooms lists every known conversation id, sorted; used to rejoin all
// rooms after (re)connecting, since the relay forgets membership.
func (r *Reconciler) Rooms() []string {
	r.mx.Lock()
	defer r.mx.Unlock()

	rooms := make([]string, 0, len(r.conversations))
	for id := range r.conversations {
		rooms = append(rooms, id)
	}
	sort.Strings(rooms)
	return rooms
}

// Active returns the current conversation pointer.
func (r *Reconciler) Active() Active {
	r.mx.Lock()
	defer r.mx.Unlock()
	return r.active
}

// ActiveMessages returns the active room's log in order.
func (r *Reconciler) ActiveMessages() []*proto.Message {
	r.mx.Lock()
	defer r.mx.Unlock()
	if conv, ok := r.conversations[r.active.ID]; ok {
		return conv.Messages()
	}
	return nil
}

// SelectGlobal switches back to the global room.
func (r *Reconciler) SelectGlobal() {
	r.mx.Lock()
	defer r.mx.Unlock()
	r.active = GlobalConversation()
}

// SelectConversation switches to the direct conversation with the
// given user, lazily creating the log and joining the room on first
// use. Re-selecting the same user is a safe no-op.
func (r *Reconciler) SelectConversation(ctx context.Context, other proto.User) string {
	r.mx.Lock()
	defer r.mx.Unlock()

	roomID := DMRoomID(r.self.Name, other.Name)
	if _, ok := r.conversations[roomID]; !ok {
		r.conversations[roomID] = NewConversation()
		r.emitEvent(ctx, proto.EventJoinRoom, proto.JoinInfo{RoomID: roomID})
		r.persist(ctx)
	}

	display := other.DisplayName
	if display == "" {
		display = other.Name
	}
	avatar := other.Avatar
	if avatar == "" && display != "" {
		avatar = strings.ToUpper(string([]rune(display)[0]))
	}
	r.active = Active{ID: roomID, DisplayName: display, Avatar: avatar}
	return roomID
}

// SendMessage builds a message for the active room, appends it
// optimistically so the sender sees it before any relay echo, and
// emits it. Messages with no text and no image are rejected locally.
func (r *Reconciler) SendMessage(ctx context.Context, text, image string) (*proto.Message, error) {
	if strings.TrimSpace(text) == "" && image == "" {
		return nil, ErrEmptyMessage
	}

	r.mx.Lock()
	defer r.mx.Unlock()

	msg := r.newMessage(text)
	msg.Image = image
	return r.sendLocked(ctx, proto.EventSendMessage, msg)
}

// ReplyMessage sends a message quoting the target. The quote is a
// frozen snapshot: later edits to the original do not propagate.
func (r *Reconciler) ReplyMessage(ctx context.Context, target *proto.Message, text string) (*proto.Message, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyMessage
	}

	r.mx.Lock()
	defer r.mx.Unlock()

	msg := r.newMessage(text)
	msg.ReplyTo = &proto.ReplyRef{ID: target.ID, User: target.User, Text: target.Text}
	return r.sendLocked(ctx, proto.EventSendMessage, msg)
}

// SendAudio sends a base64 audio payload to the active room.
func (r *Reconciler) SendAudio(ctx context.Context, audio string) (*proto.Message, error) {
	if audio == "" {
		return nil, ErrEmptyMessage
	}

	r.mx.Lock()
	defer r.mx.Unlock()

	msg := r.newMessage("")
	msg.Audio = audio
	msg.To = ""
	return r.sendLocked(ctx, proto.EventSendAudio, msg)
}

// SendSticker sends a base64 sticker payload to the active room.
func (r *Reconciler) SendSticker(ctx context.Context, sticker string) (*proto.Message, error) {
	if sticker == "" {
		return nil, ErrEmptyMessage
	}

	r.mx.Lock()
	defer r.mx.Unlock()

	msg := r.newMessage("")
	msg.Sticker = sticker
	msg.To = ""
	return r.sendLocked(ctx, proto.EventSendSticker, msg)
}

func (r *Reconciler) newMessage(text string) *proto.Message {
	return &proto.Message{
		RoomID:    r.active.ID,
		ID:        utils.MessageID(),
		Text:      text,
		User:      r.self,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		To:        PeerName(r.active.ID, r.self.Name),
		Status:    proto.StatusSent,
	}
}

func (r *Reconciler) sendLocked(ctx context.Context, event string, msg *proto.Message) (*proto.Message, error) {
	conv := r.conversation(msg.RoomID)
	conv.Append(msg)
	r.pending[msg.ID] = struct{}{}
	r.persist(ctx)
	r.emitEvent(ctx, event, msg)
	return msg, nil
}

// EditMessage replaces the text of a message in the active room and
// broadcasts the edit. Concurrent edits have no version check: the
// last broadcast applied wins everywhere.
func (r *Reconciler) EditMessage(ctx context.Context, id int64, newText string) error {
	r.mx.Lock()
	defer r.mx.Unlock()

	conv := r.conversation(r.active.ID)
	msg := conv.Get(id)
	if msg == nil {
		return ErrUnknownMessage
	}
	msg.Text = newText
	msg.Edited = true
	r.persist(ctx)
	r.emitEvent(ctx, proto.EventEditMessage, proto.Edit{RoomID: r.active.ID, ID: id, NewText: newText})
	return nil
}

// React adds the local user to the emoji's reactor set and broadcasts
// the reaction. Reactions only accumulate; there is no removal event.
func (r *Reconciler) React(ctx context.Context, id int64, emoji string) error {
	r.mx.Lock()
	defer r.mx.Unlock()

	conv := r.conversation(r.active.ID)
	msg := conv.Get(id)
	if msg == nil {
		return ErrUnknownMessage
	}
	addReaction(msg, emoji, r.self.Name)
	r.persist(ctx)
	r.emitEvent(ctx, proto.EventReactMessage, proto.Reaction{RoomID: r.active.ID, ID: id, Emoji: emoji, UserName: r.self.Name})
	return nil
}

// DeleteMessage removes a message from the local log only. The
// protocol has no delete broadcast, so other participants keep their
// copies; this asymmetry is a known protocol gap.
func (r *Reconciler) DeleteMessage(ctx context.Context, id int64) {
	r.mx.Lock()
	defer r.mx.Unlock()

	if r.conversation(r.active.ID).Remove(id) {
		delete(r.pending, id)
		r.persist(ctx)
	}
}

// ClearChat asks the relay to signal a wipe to the active room. The
// local log clears when the chat_cleared broadcast comes back.
func (r *Reconciler) ClearChat(ctx context.Context) {
	r.mx.Lock()
	defer r.mx.Unlock()
	r.emitEvent(ctx, proto.EventClearChat, proto.ClearInfo{RoomID: r.active.ID})
}

// MarkRead marks every inbound message in the active room as read and
// sends a read receipt to each author.
func (r *Reconciler) MarkRead(ctx context.Context) {
	r.mx.Lock()
	defer r.mx.Unlock()

	conv := r.conversation(r.active.ID)
	changed := false
	for _, msg := range conv.Messages() {
		if msg.User.Name == r.self.Name || msg.Status == proto.StatusRead {
			continue
		}
		msg.Status = proto.StatusRead
		changed = true
		r.emitEvent(ctx, proto.EventMessageRead, proto.Receipt{ID: msg.ID, RoomID: r.active.ID, UserName: msg.User.Name})
	}
	if changed {
		r.persist(ctx)
	}
}

// UpdateProfile persists the local user's new profile and announces it
// to the relay. The name is fixed; only the presentation fields change.
func (r *Reconciler) UpdateProfile(ctx context.Context, u proto.User) error {
	r.mx.Lock()
	defer r.mx.Unlock()

	u.Name = r.self.Name
	r.self = u
	if err := SaveProfile(ctx, r.store, u); err != nil {
		return err
	}
	r.emitEvent(ctx, proto.EventProfileUpdated, u)
	return nil
}

// Pending reports whether a sent message still awaits its delivery
// ack. Kept as an explicit marker so duplicate suppression does not
// depend on the relay's sender exclusion alone.
func (r *Reconciler) Pending(id int64) bool {
	r.mx.Lock()
	defer r.mx.Unlock()
	_, ok := r.pending[id]
	return ok
}

// Users returns the known users excluding self, sorted by name.
func (r *Reconciler) Users() []proto.User {
	r.mx.Lock()
	defer r.mx.Unlock()

	users := make([]proto.User, 0, len(r.users))
	for _, u := range r.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Name < users[j].Name })
	return users
}

// Typing returns who is currently typing in a room, sorted.
func (r *Reconciler) Typing(roomID string) []string {
	r.mx.Lock()
	defer r.mx.Unlock()

	set, ok := r.typing[roomID]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DMSummary is one entry of the sidebar's direct-conversation list.
type DMSummary struct {
	RoomID      string
	Name        string
	DisplayName string
	Avatar      string
	LastMessage string
}

// DMConversations derives the direct-conversation list: every room but
// global, with the peer's display identity resolved from the known
// users (falling back to the bare name) and a last-message summary.
func (r *Reconciler) DMConversations() []DMSummary {
	r.mx.Lock()
	defer r.mx.Unlock()

	summaries := make([]DMSummary, 0, len(r.conversations))
	for roomID, conv := range r.conversations {
		if roomID == proto.GlobalRoom {
			continue
		}
		peer := PeerName(roomID, r.self.Name)

		summary := DMSummary{RoomID: roomID, Name: peer, DisplayName: peer}
		if u, ok := r.users[peer]; ok {
			if u.DisplayName != "" {
				summary.DisplayName = u.DisplayName
			}
			summary.Avatar = u.Avatar
		}
		if last := conv.Last(); last != nil {
			summary.LastMessage = last.Text
			if last.Text == "" && last.HasMedia() {
				summary.LastMessage = "📷 Photo"
			}
		}
		summaries = append(summaries, summary)
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].RoomID < summaries[j].RoomID })
	return summaries
}

// HandleEvent merges one relay event into local state. Handlers run to
// completion before the next event; unknown events are ignored.
func (r *Reconciler) HandleEvent(ctx context.Context, event string, data json.RawMessage) error {
	r.mx.Lock()
	defer r.mx.Unlock()

	switch event {
	case proto.EventReceiveMessage, proto.EventReceiveAudio, proto.EventReceiveSticker:
		var msg proto.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			return err
		}
		r.onReceiveMessage(ctx, &msg)
	case proto.EventMessageDelivered:
		var rcpt proto.Receipt
		if err := json.Unmarshal(data, &rcpt); err != nil {
			return err
		}
		r.onReceipt(ctx, &rcpt, proto.StatusDelivered)
	case proto.EventMessageRead:
		var rcpt proto.Receipt
		if err := json.Unmarshal(data, &rcpt); err != nil {
			return err
		}
		r.onReceipt(ctx, &rcpt, proto.StatusRead)
	case proto.EventMessageReaction:
		var reaction proto.Reaction
		if err := json.Unmarshal(data, &reaction); err != nil {
			return err
		}
		r.onReaction(ctx, &reaction)
	case proto.EventMessageEdited:
		var edit proto.Edit
		if err := json.Unmarshal(data, &edit); err != nil {
			return err
		}
		r.onEdited(ctx, &edit)
	case proto.EventChatCleared:
		var clear proto.ClearInfo
		if err := json.Unmarshal(data, &clear); err != nil {
			return err
		}
		r.onCleared(ctx, clear.RoomID)
	case proto.EventTyping, proto.EventStopTyping:
		var info proto.TypingInfo
		if err := json.Unmarshal(data, &info); err != nil {
			return err
		}
		r.onTyping(&info, event == proto.EventTyping)
	case proto.EventUserConnected, proto.EventUserProfileUpdated:
		var u proto.User
		if err := json.Unmarshal(data, &u); err != nil {
			return err
		}
		r.onUserSeen(ctx, u)
	case proto.EventUserDisconnected:
		var p proto.Presence
		if err := json.Unmarshal(data, &p); err != nil {
			return err
		}
		r.onUserGone(p.Name)
	default:
		r.log.Debug().Str("event", event).Msg("unknown event ignored")
	}
	return nil
}

// onReceiveMessage reconciles an incoming message: an echo of our own
// optimistic append merges status only (never a second render); an
// unseen inbound message is appended at delivered; a seen one merges
// status.
func (r *Reconciler) onReceiveMessage(ctx context.Context, msg *proto.Message) {
	if msg.RoomID == "" {
		return
	}
	conv := r.conversation(msg.RoomID)

	if msg.User.Name == r.self.Name {
		if own := conv.Get(msg.ID); own != nil {
			own.Status = own.Status.Merge(msg.Status)
			delete(r.pending, msg.ID)
			r.persist(ctx)
		}
		return
	}

	if existing := conv.Get(msg.ID); existing != nil {
		existing.Status = existing.Status.Merge(msg.Status)
	} else {
		copied := *msg
		copied.Status = proto.StatusDelivered
		conv.Append(&copied)
	}
	r.persist(ctx)
}

func (r *Reconciler) onReceipt(ctx context.Context, rcpt *proto.Receipt, status proto.Status) {
	conv, ok := r.conversations[rcpt.RoomID]
	if !ok {
		return
	}
	msg := conv.Get(rcpt.ID)
	if msg == nil {
		return
	}
	msg.Status = msg.Status.Merge(status)
	if status == proto.StatusDelivered {
		delete(r.pending, rcpt.ID)
	}
	r.persist(ctx)
}

func (r *Reconciler) onReaction(ctx context.Context, reaction *proto.Reaction) {
	conv, ok := r.conversations[reaction.RoomID]
	if !ok {
		return
	}
	msg := conv.Get(reaction.ID)
	if msg == nil {
		return
	}
	addReaction(msg, reaction.Emoji, reaction.UserName)
	r.persist(ctx)
}

func (r *Reconciler) onEdited(ctx context.Context, edit *proto.Edit) {
	conv, ok := r.conversations[edit.RoomID]
	if !ok {
		return
	}
	msg := conv.Get(edit.ID)
	if msg == nil {
		return
	}
	msg.Text = edit.NewText
	msg.Edited = true
	r.persist(ctx)
}

func (r *Reconciler) onCleared(ctx context.Context, roomID string) {
	if conv, ok := r.conversations[roomID]; ok {
		conv.Clear()
		r.persist(ctx)
	}
}

func (r *Reconciler) onTyping(info *proto.TypingInfo, start bool) {
	if info.RoomID == "" || info.UserName == "" || info.UserName == r.self.Name {
		return
	}
	set, ok := r.typing[info.RoomID]
	if !ok {
		if !start {
			return
		}
		set = make(map[string]struct{})
		r.typing[info.RoomID] = set
	}
	if start {
		set[info.UserName] = struct{}{}
	} else {
		delete(set, info.UserName)
	}
}

func (r *Reconciler) onUserSeen(ctx context.Context, u proto.User) {
	if u.Name == "" || u.Name == r.self.Name {
		return
	}
	r.users[u.Name] = u
	if err := upsertStoredUser(ctx, r.store, u); err != nil {
		r.log.Warn().Err(err).Str("name", u.Name).Msg("failed to persist user")
	}
}

func (r *Reconciler) onUserGone(name string) {
	delete(r.users, name)
	for _, set := range r.typing {
		delete(set, name)
	}
}

func addReaction(msg *proto.Message, emoji, userName string) {
	if msg.Reactions == nil {
		msg.Reactions = make(map[string][]string)
	}
	for _, existing := range msg.Reactions[emoji] {
		if existing == userName {
			return
		}
	}
	msg.Reactions[emoji] = append(msg.Reactions[emoji], userName)
}

// conversation returns the room's log, creating it lazily: a DM
// initiated by the other side shows up here first.
func (r *Reconciler) conversation(roomID string) *Conversation {
	conv, ok := r.conversations[roomID]
	if !ok {
		conv = NewConversation()
		r.conversations[roomID] = conv
	}
	return conv
}

func (r *Reconciler) emitEvent(ctx context.Context, event string, data any) {
	if r.emit == nil {
		return
	}
	if err := r.emit(ctx, event, data); err != nil {
		r.log.Warn().Err(err).Str("event", event).Msg("emit failed")
	}
}

// persist writes the full conversation map back to the durable store.
// Failures are logged and otherwise ignored: availability over
// correctness, the in-memory state stays authoritative for this run.
func (r *Reconciler) persist(ctx context.Context) {
	raw, err := json.Marshal(r.conversations)
	if err != nil {
		r.log.Error().Err(err).Msg("failed to serialize conversations")
		return
	}
	if err := r.store.Put(ctx, conversationsKeyPrefix+r.self.Name, raw); err != nil {
		r.log.Warn().Err(err).Msg("failed to persist conversations")
	}
}
