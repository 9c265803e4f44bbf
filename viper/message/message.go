// Package message builds the JSON request bodies the doorbell expects
// and decodes its typed responses. All wire keys are kebab-case.
package message

import "encoding/json"

type base struct {
	Message     string `json:"message"`
	MessageType string `json:"message-type"`
	MessageID   uint8  `json:"message-id"`
}

func request(message string, id uint8) base {
	return base{
		Message:     message,
		MessageType: "request",
		MessageID:   id,
	}
}

type accessRequest struct {
	base
	UserToken string `json:"user-token"`
}

type configurationRequest struct {
	base
	Addressbooks string `json:"addressbooks"`
}

type removeAllUsersRequest struct {
	base
	Requester string `json:"requester"`
}

type activateUserRequest struct {
	base
	Email       string `json:"email"`
	Description string `json:"description"`
}

// Access builds the UAUT authorize request.
func Access(token string) ([]byte, error) {
	return json.Marshal(accessRequest{
		base:      request("access", 1),
		UserToken: token,
	})
}

// GetConfiguration builds the UCFG request. addressbooks is "none" or "all".
func GetConfiguration(addressbooks string) ([]byte, error) {
	return json.Marshal(configurationRequest{
		base:         request("get-configuration", 1),
		Addressbooks: addressbooks,
	})
}

// ServerInfo builds the INFO request.
func ServerInfo() ([]byte, error) {
	return json.Marshal(request("server-info", 1))
}

// RcgGetParams builds the FRCG request. The doorbell insists on
// message-id 121 here and echoes it back.
func RcgGetParams() ([]byte, error) {
	return json.Marshal(request("rcg-get-params", 121))
}

// RemoveAllUsers builds the FACT request that wipes every registered user.
func RemoveAllUsers(requester string) ([]byte, error) {
	return json.Marshal(removeAllUsersRequest{
		base:      request("remove-all-users", 1),
		Requester: requester,
	})
}

// ActivateUser builds the FACT sign-up request.
func ActivateUser(email string) ([]byte, error) {
	return json.Marshal(activateUserRequest{
		base:        request("activate-user", 1),
		Email:       email,
		Description: "viper-client",
	})
}
