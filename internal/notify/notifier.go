package notify

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"ms-ordering/internal/logger"
	"ms-ordering/internal/models"
	"ms-ordering/internal/utils"
)

type Event string

const (
	EventReceiptApproved    Event = "receipt_approved"
	EventReceiptDisapproved Event = "receipt_disapproved"
	EventOrderReady         Event = "order_ready"
)

const (
	settingWhitelist = "sms.whitelist"
	settingBlacklist = "sms.blacklist"
)

func enabledKey(e Event) string {
	return "sms." + string(e) + ".enabled"
}

// Message is one customer notification request.
type Message struct {
	Event         Event
	OrderID       string
	Phone         string
	CustomerName  string
	TrackingToken string
	Reason        string
}

type Sender interface {
	Send(ctx context.Context, phone, text string) error
}

type Store interface {
	Settings(ctx context.Context, keys ...string) (map[string]string, error)
	InsertSmsLog(ctx context.Context, entry *models.SmsLog) error
}

type Notifier struct {
	store  Store
	sender Sender
	log    *logger.Logger
	now    func() time.Time
}

func NewNotifier(store Store, sender Sender, log *logger.Logger) *Notifier {
	return &Notifier{store: store, sender: sender, log: log, now: time.Now}
}

// Notify never returns an error to the caller's workflow: every outcome is
// logged and stored as an sms_logs row. The returned status is for callers
// that want to report it.
func (n *Notifier) Notify(ctx context.Context, msg Message) models.SmsStatus {
	text := Render(msg)
	status, detail := n.decideAndSend(ctx, msg, text)

	entry := &models.SmsLog{
		ID:        utils.GenerateID(),
		Phone:     NormalizePhone(msg.Phone),
		Event:     string(msg.Event),
		Message:   text,
		Status:    status,
		Detail:    detail,
		CreatedAt: n.now(),
	}
	if msg.OrderID != "" {
		entry.OrderID = &msg.OrderID
	}
	if err := n.store.InsertSmsLog(ctx, entry); err != nil {
		n.log.Error("SMS", fmt.Sprintf("failed to record sms log for order %s: %v", msg.OrderID, err))
	}
	n.log.LogSMS(string(msg.Event), entry.Phone, fmt.Sprintf("%s %s", status, detail))
	return status
}

func (n *Notifier) decideAndSend(ctx context.Context, msg Message, text string) (models.SmsStatus, string) {
	settings, err := n.store.Settings(ctx, enabledKey(msg.Event), settingWhitelist, settingBlacklist)
	if err != nil {
		return models.SmsFailed, "settings unavailable: " + err.Error()
	}

	if enabled, _ := strconv.ParseBool(strings.TrimSpace(settings[enabledKey(msg.Event)])); !enabled {
		return models.SmsSkipped, "event disabled"
	}
	if err := ValidatePhone(msg.Phone); err != nil {
		return models.SmsSkipped, "invalid phone"
	}

	rules := PhoneRules{
		Whitelist: ParsePhoneList(settings[settingWhitelist]),
		Blacklist: ParsePhoneList(settings[settingBlacklist]),
	}
	if !rules.Allows(msg.Phone) {
		return models.SmsSkipped, "blocked by phone rules"
	}

	if err := n.sender.Send(ctx, NormalizePhone(msg.Phone), text); err != nil {
		return models.SmsFailed, err.Error()
	}
	return models.SmsSent, ""
}

func Render(msg Message) string {
	name := msg.CustomerName
	if name == "" {
		name = "customer"
	}
	switch msg.Event {
	case EventReceiptApproved:
		return fmt.Sprintf("Hi %s, your payment was approved. Track your order: %s", name, msg.TrackingToken)
	case EventReceiptDisapproved:
		return fmt.Sprintf("Hi %s, we could not accept your payment receipt: %s. Please upload a new one.", name, msg.Reason)
	case EventOrderReady:
		return fmt.Sprintf("Hi %s, your order is ready.", name)
	}
	return fmt.Sprintf("Hi %s, your order %s was updated.", name, msg.TrackingToken)
}
