// Package viper speaks the doorbell's length-prefixed multi-channel
// protocol: JSON command channels (UAUT, UCFG, INFO, FRCG, FACT) and
// the binary CTPP actuator sub-protocol.
package viper

import (
	"encoding/json"
	"fmt"
	"net"
	"strconv"

	"github.com/openviper/viperclient/viper/channel"
	"github.com/openviper/viperclient/viper/message"
	"github.com/openviper/viperclient/viper/vrand"
)

// DefaultHandshakeRetries is how many extra frames the CTPP driver
// consumes while waiting for the handshake confirmation.
const DefaultHandshakeRetries = 2

// Client coordinates channels over a single transport. Each operation
// is a complete open, command, close sequence on a freshly allocated
// channel. A client is single-threaded; responses arrive in request
// order because only one request is ever in flight.
type Client struct {
	transport *Transport
	control   [2]byte

	// HandshakeRetries is the number of non-matching frames the
	// open-door handshake tolerates before giving up.
	HandshakeRetries int

	// OnFrame, when set, observes every CTPP payload read while the
	// driver waits for a confirmation. Debug hook only.
	OnFrame func(payload []byte)
}

// Connect dials the doorbell and seeds the control-id allocator.
func Connect(host string, port int) (*Client, error) {
	t, err := DialTransport(net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return nil, err
	}
	return &Client{
		transport:        t,
		control:          vrand.Control(),
		HandshakeRetries: DefaultHandshakeRetries,
	}, nil
}

// tick advances the control allocator: the first byte increments and
// wraps 0x7f back to 0x01, never touching 0x00 or the upper half the
// doorbell reserves for its +0x80 transform.
func (c *Client) tick() {
	c.control[0]++
	if c.control[0] >= 0x80 {
		c.control[0] = 0x01
	}
}

// channelFor allocates a named channel on the current control id, then
// ticks so the next channel never collides with it.
func (c *Client) channelFor(name string) channel.Channel {
	ch := channel.New(c.control, name)
	c.tick()
	return ch
}

func (c *Client) ctppChannel() *channel.CTPP {
	ch := channel.NewCTPP(c.control)
	c.tick()
	return ch
}

// command runs one open → command → close sequence and returns the raw
// response payload of the command exchange.
func (c *Client) command(name string, body []byte, err error) ([]byte, error) {
	if err != nil {
		return nil, &CodecError{Err: err}
	}

	ch := c.channelFor(name)
	if _, err := c.transport.Execute(ch.Open()); err != nil {
		return nil, err
	}
	resp, err := c.transport.Execute(ch.Com(body))
	if err != nil {
		return nil, err
	}
	if _, err := c.transport.Execute(ch.Close()); err != nil {
		return nil, err
	}
	return resp, nil
}

func decode(raw []byte, out interface{}) error {
	if err := json.Unmarshal(raw, out); err != nil {
		return &CodecError{Err: err, Raw: raw}
	}
	return nil
}

// Authorize runs the UAUT exchange. A rejected token is not an error;
// inspect ResponseCode on the result.
func (c *Client) Authorize(token string) (*message.AuthResponse, error) {
	body, err := message.Access(token)
	raw, err := c.command("UAUT", body, err)
	if err != nil {
		return nil, err
	}
	var resp message.AuthResponse
	if err := decode(raw, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Configuration runs the UCFG exchange. addressbooks is "none" or
// "all"; only "all" fills in the user-parameters address books.
func (c *Client) Configuration(addressbooks string) (*message.ConfigResponse, error) {
	body, err := message.GetConfiguration(addressbooks)
	raw, err := c.command("UCFG", body, err)
	if err != nil {
		return nil, err
	}
	var resp message.ConfigResponse
	if err := decode(raw, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Info runs the INFO exchange.
func (c *Client) Info() (*message.InfoResponse, error) {
	body, err := message.ServerInfo()
	raw, err := c.command("INFO", body, err)
	if err != nil {
		return nil, err
	}
	var resp message.InfoResponse
	if err := decode(raw, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// FaceRecognitionParams runs the FRCG exchange. The reply's semantics
// are opaque, so it comes back as a generic JSON object.
func (c *Client) FaceRecognitionParams() (map[string]json.RawMessage, error) {
	body, err := message.RcgGetParams()
	raw, err := c.command("FRCG", body, err)
	if err != nil {
		return nil, err
	}
	var resp map[string]json.RawMessage
	if err := decode(raw, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// SignUp registers a user over the FACT channel and returns the token
// the doorbell minted for them.
func (c *Client) SignUp(email string) (*message.ActivateUserResponse, error) {
	body, err := message.ActivateUser(email)
	raw, err := c.command("FACT", body, err)
	if err != nil {
		return nil, err
	}
	var resp message.ActivateUserResponse
	if err := decode(raw, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RemoveAllUsers wipes every registered user over the FACT channel.
func (c *Client) RemoveAllUsers(requester string) (map[string]json.RawMessage, error) {
	body, err := message.RemoveAllUsers(requester)
	raw, err := c.command("FACT", body, err)
	if err != nil {
		return nil, err
	}
	var resp map[string]json.RawMessage
	if err := decode(raw, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// OpenChannel opens a named channel and hands back a handle whose
// Close sends the closing frame. The vendor app brackets its CTPP work
// with a bare CSPB channel this way.
func (c *Client) OpenChannel(name string) (*OpenChannel, error) {
	ch := c.channelFor(name)
	if _, err := c.transport.Execute(ch.Open()); err != nil {
		return nil, err
	}
	return &OpenChannel{ch: ch, transport: c.transport}, nil
}

// OpenChannel is a live channel held open across other exchanges.
type OpenChannel struct {
	ch        channel.Channel
	transport *Transport
}

// Close sends the channel-close frame and reads its acknowledgement.
func (o *OpenChannel) Close() error {
	_, err := o.transport.Execute(o.ch.Close())
	return err
}

// OpenDoor drives the CTPP state machine end to end using the
// addressing found in a prior Configuration("all") reply: open the
// channel with the sub address, handshake, double-ACK, link the first
// opendoor actuator, confirm, close.
func (c *Client) OpenDoor(vip *message.Vip) error {
	book := vip.UserParameters.OpendoorAddressBook
	if len(book) == 0 {
		return &ProtocolError{Msg: "opendoor address book is empty"}
	}
	apt := vip.AptAddress
	sub := fmt.Sprintf("%s%d", apt, vip.AptSubaddress)
	act := book[0].AptAddress

	ctpp := c.ctppChannel()
	if _, err := c.transport.Execute(ctpp.Open(sub)); err != nil {
		return err
	}

	c.transport.SetReadTimeout(HandshakeTimeout)
	defer c.transport.SetReadTimeout(DefaultTimeout)

	if err := c.transport.Write(ctpp.ConnectHS(sub, apt)); err != nil {
		return err
	}
	if err := c.awaitConfirmation(ctpp); err != nil {
		return err
	}

	if err := c.transport.Write(ctpp.Ack(0x00, sub, apt)); err != nil {
		return err
	}
	if err := c.transport.Write(ctpp.Ack(0x20, sub, apt)); err != nil {
		return err
	}

	if err := c.transport.Write(ctpp.LinkActuators(act, sub)); err != nil {
		return err
	}
	resp, err := c.transport.ReadFrame()
	if err != nil {
		return err
	}
	if c.OnFrame != nil {
		c.OnFrame(resp)
	}
	if !ctpp.Confirm(resp) {
		return &ProtocolError{Msg: "actuator link not confirmed"}
	}

	_, err = c.transport.Execute(ctpp.Close())
	return err
}

// awaitConfirmation reads frames until one confirms the handshake.
// The doorbell interleaves unrelated frames here; they are consumed and
// ignored, up to HandshakeRetries extra reads.
func (c *Client) awaitConfirmation(ctpp *channel.CTPP) error {
	for i := 0; i <= c.HandshakeRetries; i++ {
		resp, err := c.transport.ReadFrame()
		if err != nil {
			return err
		}
		if c.OnFrame != nil {
			c.OnFrame(resp)
		}
		if ctpp.ConfirmHandshake(resp) {
			return nil
		}
	}
	return &ProtocolError{
		Msg: fmt.Sprintf("no handshake confirmation within %d reads", c.HandshakeRetries+1),
	}
}

// Shutdown closes the transport. A partial CTPP sequence that failed
// mid-flight leaves its channel open on the device; shutting down is
// how the caller reclaims it.
func (c *Client) Shutdown() error {
	return c.transport.Shutdown()
}
