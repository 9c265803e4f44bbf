package message

import "encoding/json"

// Response is the envelope common to every reply. Firmware adds fields
// per message, so decoders must tolerate unknown keys.
type Response struct {
	Message        string `json:"message"`
	MessageType    string `json:"message-type"`
	MessageID      uint8  `json:"message-id"`
	ResponseCode   int    `json:"response-code"`
	ResponseString string `json:"response-string"`
}

// OK reports whether the doorbell accepted the request.
func (r *Response) OK() bool {
	return r.ResponseCode == 200
}

// AuthResponse is the UAUT reply.
type AuthResponse struct {
	Response
}

// ActivateUserResponse is the FACT activate-user reply.
type ActivateUserResponse struct {
	Response
	UserToken string `json:"user-token"`
}

// ViperServer describes where the doorbell's server side listens.
type ViperServer struct {
	LocalAddress  string `json:"local-address"`
	LocalTCPPort  uint16 `json:"local-tcp-port"`
	LocalUDPPort  uint16 `json:"local-udp-port"`
	RemoteAddress string `json:"remote-address"`
	RemoteTCPPort uint16 `json:"remote-tcp-port"`
	RemoteUDPPort uint16 `json:"remote-udp-port"`
}

// ViperClient is the client block of a UCFG reply.
type ViperClient struct {
	Description string `json:"description"`
}

// AptConfig holds the apartment settings inside the vip block.
type AptConfig struct {
	Description       string `json:"description"`
	CallDivertBusyEn  bool   `json:"call-divert-busy-en"`
	CallDivertAddress string `json:"call-divert-address"`
	VirtualKeyEnabled bool   `json:"virtual-key-enabled"`
}

// AddressBookEntry is one row of the user-parameters address books.
type AddressBookEntry struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	AptAddress  string `json:"apt-address"`
	OutputIndex int    `json:"output-index"`
	SecureMode  bool   `json:"secure-mode"`
}

// OpendoorAction pairs an actuator address with the action it performs.
type OpendoorAction struct {
	Action      string `json:"action"`
	AptAddress  string `json:"apt-address"`
	OutputIndex int    `json:"output-index"`
}

// UserParameters carries the address books a UCFG("all") reply adds.
type UserParameters struct {
	SwitchboardAddressBook []AddressBookEntry `json:"switchboard-address-book"`
	EntranceAddressBook    []AddressBookEntry `json:"entrance-address-book"`
	ActuatorAddressBook    []AddressBookEntry `json:"actuator-address-book"`
	OpendoorAddressBook    []AddressBookEntry `json:"opendoor-address-book"`
	OpendoorActions        []OpendoorAction   `json:"opendoor-actions"`
	AdditionalActuator     []AddressBookEntry `json:"additional-actuator"`
}

// Vip is the addressing block of a UCFG reply. OpenDoor derives the
// "sub" address from AptAddress and AptSubaddress.
type Vip struct {
	Enabled           bool           `json:"enabled"`
	AptAddress        string         `json:"apt-address"`
	AptSubaddress     uint16         `json:"apt-subaddress"`
	LogicalSubaddress uint16         `json:"logical-subaddress"`
	AptConfig         AptConfig      `json:"apt-config"`
	UserParameters    UserParameters `json:"user-parameters"`
}

// ConfigResponse is the UCFG reply.
type ConfigResponse struct {
	Response
	ViperServer ViperServer `json:"viper-server"`
	ViperClient ViperClient `json:"viper-client"`
	Vip         Vip         `json:"vip"`
}

// InfoResponse is the INFO reply. Beyond the fixed identity fields the
// doorbell reports one descriptor object per channel it supports; those
// land in ChannelDetails keyed by channel name.
type InfoResponse struct {
	Response
	Model          string   `json:"model"`
	Version        string   `json:"version"`
	SerialCode     string   `json:"serial-code"`
	Capabilities   []string `json:"capabilities"`
	ChannelDetails map[string]json.RawMessage
}

// infoKnown lists the InfoResponse keys that are not channel descriptors.
var infoKnown = map[string]bool{
	"message": true, "message-type": true, "message-id": true,
	"response-code": true, "response-string": true,
	"model": true, "version": true, "serial-code": true,
	"capabilities": true,
}

// UnmarshalJSON decodes the fixed fields, then sweeps every remaining
// key into ChannelDetails.
func (r *InfoResponse) UnmarshalJSON(data []byte) error {
	type plain InfoResponse
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}

	var rest map[string]json.RawMessage
	if err := json.Unmarshal(data, &rest); err != nil {
		return err
	}
	for k := range rest {
		if infoKnown[k] {
			delete(rest, k)
		}
	}

	*r = InfoResponse(p)
	r.ChannelDetails = rest
	return nil
}
