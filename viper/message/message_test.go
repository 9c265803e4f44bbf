package message

import (
	"encoding/json"
	"testing"
)

func TestAccess(t *testing.T) {
	b, err := Access("token")
	if err != nil {
		t.Fatal(err)
	}
	// 81 bytes of JSON is what the doorbell sees for this token.
	if len(b) != 81 {
		t.Fatalf("length: %d", len(b))
	}

	var m map[string]interface{}
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatal(err)
	}
	if m["message"] != "access" {
		t.Errorf("message: %v", m["message"])
	}
	if m["message-type"] != "request" {
		t.Errorf("message-type: %v", m["message-type"])
	}
	if m["message-id"] != float64(1) {
		t.Errorf("message-id: %v", m["message-id"])
	}
	if m["user-token"] != "token" {
		t.Errorf("user-token: %v", m["user-token"])
	}
}

func TestRcgGetParamsID(t *testing.T) {
	b, err := RcgGetParams()
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatal(err)
	}
	if m["message"] != "rcg-get-params" {
		t.Errorf("message: %v", m["message"])
	}
	if m["message-id"] != float64(121) {
		t.Errorf("message-id: %v", m["message-id"])
	}
}

func TestGetConfiguration(t *testing.T) {
	b, err := GetConfiguration("all")
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatal(err)
	}
	if m["message"] != "get-configuration" || m["addressbooks"] != "all" {
		t.Errorf("request: %v", m)
	}
}

func TestActivateUser(t *testing.T) {
	b, err := ActivateUser("door@example.com")
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatal(err)
	}
	if m["message"] != "activate-user" || m["email"] != "door@example.com" {
		t.Errorf("request: %v", m)
	}
	if m["description"] != "viper-client" {
		t.Errorf("description: %v", m["description"])
	}
}

func TestAuthResponseTolerantDecode(t *testing.T) {
	raw := `{
		"message":"access",
		"message-type":"response",
		"message-id":1,
		"response-code":200,
		"response-string":"Access Granted",
		"some-firmware-extra":true
	}`

	var resp AuthResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		t.Fatal(err)
	}
	if !resp.OK() {
		t.Errorf("response-code: %d", resp.ResponseCode)
	}
	if resp.ResponseString != "Access Granted" {
		t.Errorf("response-string: %q", resp.ResponseString)
	}
}

func TestInfoResponseChannelDetails(t *testing.T) {
	raw := `{
		"message":"server-info",
		"message-type":"response",
		"message-id":1,
		"response-code":200,
		"response-string":"OK",
		"model":"VX-1",
		"version":"1.2.3",
		"serial-code":"0025291701",
		"capabilities":["UAUT","UCFG","CTPP"],
		"UAUT":{"version":"1.0"},
		"CTPP":{"max-links":2}
	}`

	var resp InfoResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Model != "VX-1" || resp.SerialCode != "0025291701" {
		t.Errorf("identity: %q %q", resp.Model, resp.SerialCode)
	}
	if len(resp.Capabilities) != 3 {
		t.Errorf("capabilities: %v", resp.Capabilities)
	}
	if len(resp.ChannelDetails) != 2 {
		t.Fatalf("channel details: %v", resp.ChannelDetails)
	}
	var uaut map[string]string
	if err := json.Unmarshal(resp.ChannelDetails["UAUT"], &uaut); err != nil {
		t.Fatal(err)
	}
	if uaut["version"] != "1.0" {
		t.Errorf("UAUT details: %v", uaut)
	}
}

func TestConfigResponseAddressBooks(t *testing.T) {
	raw := `{
		"message":"get-configuration",
		"message-type":"response",
		"message-id":1,
		"response-code":200,
		"response-string":"OK",
		"viper-server":{
			"local-address":"192.168.1.9","local-tcp-port":64100,"local-udp-port":64100,
			"remote-address":"","remote-tcp-port":0,"remote-udp-port":0
		},
		"viper-client":{"description":"kitchen"},
		"vip":{
			"enabled":true,
			"apt-address":"SB000006",
			"apt-subaddress":2,
			"logical-subaddress":2,
			"apt-config":{
				"description":"flat 6","call-divert-busy-en":false,
				"call-divert-address":"","virtual-key-enabled":true
			},
			"user-parameters":{
				"opendoor-address-book":[
					{"id":0,"name":"Door","apt-address":"SB1000001","output-index":1,"secure-mode":false}
				],
				"opendoor-actions":[
					{"action":"peer","apt-address":"SB1000001","output-index":1}
				]
			}
		}
	}`

	var resp ConfigResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Vip.AptAddress != "SB000006" || resp.Vip.AptSubaddress != 2 {
		t.Errorf("vip: %+v", resp.Vip)
	}
	book := resp.Vip.UserParameters.OpendoorAddressBook
	if len(book) != 1 || book[0].AptAddress != "SB1000001" {
		t.Fatalf("opendoor book: %+v", book)
	}
	if resp.ViperServer.LocalTCPPort != 64100 {
		t.Errorf("viper-server: %+v", resp.ViperServer)
	}
}
