package wa

import (
	"context"
	"errors"
	"fmt"

	"github.com/matheus3301/lounge/internal/store"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	wastore "go.mau.fi/whatsmeow/store"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	"go.uber.org/zap"
	"google.golang.org/protobuf/proto"

	_ "github.com/mattn/go-sqlite3"
)

// DeviceName is shown in the phone's linked devices list.
const DeviceName = "Lounge"

// ErrPaired is returned by QRChannel when the device is already linked.
var ErrPaired = errors.New("wa: device already paired")

// Device is the linked WhatsApp device of one profile: a whatsmeow client
// over its own sqlite device store.
type Device struct {
	*whatsmeow.Client
	container *sqlstore.Container
	logger    *zap.Logger
}

// OpenDevice opens the device store at dbPath, creating it on first use.
func OpenDevice(ctx context.Context, dbPath string, logger *zap.Logger) (*Device, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	wastore.SetOSInfo(DeviceName, [3]uint32{0, 1, 0})

	container, err := sqlstore.New(ctx, "sqlite3", "file:"+dbPath+"?_foreign_keys=on", nil)
	if err != nil {
		return nil, fmt.Errorf("open device store: %w", err)
	}
	dev, err := container.GetFirstDevice(ctx)
	if err != nil {
		_ = container.Close()
		return nil, fmt.Errorf("load device: %w", err)
	}
	return &Device{Client: whatsmeow.NewClient(dev, nil), container: container, logger: logger}, nil
}

// Close disconnects and closes the device store.
func (d *Device) Close() error {
	d.Client.Disconnect()
	return d.container.Close()
}

// IsLoggedIn reports whether the device store holds a paired identity.
func (d *Device) IsLoggedIn() bool {
	return d.Store.ID != nil
}

// QRChannel returns the pairing code channel. It must be called before
// Connect.
func (d *Device) QRChannel(ctx context.Context) (<-chan whatsmeow.QRChannelItem, error) {
	if d.IsLoggedIn() {
		return nil, ErrPaired
	}
	ch, err := d.GetQRChannel(ctx)
	if err != nil {
		return nil, fmt.Errorf("qr channel: %w", err)
	}
	return ch, nil
}

func (d *Device) Connect() error {
	d.logger.Info("connecting", zap.Bool("paired", d.IsLoggedIn()))
	return d.Client.Connect()
}

func (d *Device) Disconnect() {
	d.logger.Info("disconnecting")
	d.Client.Disconnect()
}

// SendText sends text to jid and returns the server message id.
func (d *Device) SendText(ctx context.Context, jid, text string) (string, error) {
	to, err := types.ParseJID(jid)
	if err != nil {
		return "", fmt.Errorf("parse JID %q: %w", jid, err)
	}
	resp, err := d.SendMessage(ctx, to, &waE2E.Message{Conversation: proto.String(text)})
	if err != nil {
		return "", fmt.Errorf("send to %s: %w", to, err)
	}
	return resp.ID, nil
}

// Contacts lists the address book kept by the device store. Failures are
// logged and yield nil; contacts only improve chat titles.
func (d *Device) Contacts(ctx context.Context) []store.Contact {
	all, err := d.Store.Contacts.GetAllContacts(ctx)
	if err != nil {
		d.logger.Warn("reading contacts failed", zap.Error(err))
		return nil
	}
	out := make([]store.Contact, 0, len(all))
	for jid, info := range all {
		out = append(out, store.Contact{JID: jid.ToNonAD().String(), Name: info.FullName, PushName: info.PushName})
	}
	return out
}
