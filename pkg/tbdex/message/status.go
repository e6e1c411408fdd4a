/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package message

// Status is the progress of an order.
type Status string

// Order statuses.
const (
	StatusPayinPending    Status = "PAYIN_PENDING"
	StatusPayinInitiated  Status = "PAYIN_INITIATED"
	StatusPayinSettled    Status = "PAYIN_SETTLED"
	StatusPayinFailed     Status = "PAYIN_FAILED"
	StatusPayinExpired    Status = "PAYIN_EXPIRED"
	StatusPayoutPending   Status = "PAYOUT_PENDING"
	StatusPayoutInitiated Status = "PAYOUT_INITIATED"
	StatusPayoutSettled   Status = "PAYOUT_SETTLED"
	StatusPayoutFailed    Status = "PAYOUT_FAILED"
	StatusRefundPending   Status = "REFUND_PENDING"
	StatusRefundInitiated Status = "REFUND_INITIATED"
	StatusRefundSettled   Status = "REFUND_SETTLED"
	StatusRefundFailed    Status = "REFUND_FAILED"
)

// Cancel is the customer's request to withdraw from an exchange.
type Cancel struct {
	Envelope[CancelData]
}

// CancelData is the payload of a cancel.
type CancelData struct {
	Reason string `json:"reason,omitempty"`
}

// CreateCancel creates an unsigned cancel from the customer to the PFI.
func CreateCancel(from, to, exchangeID string, data CancelData, opts ...Option) (*Cancel, error) {
	e, err := create(KindCancel, from, to, exchangeID, data, opts)
	if err != nil {
		return nil, err
	}

	return &Cancel{Envelope: e}, nil
}

// ParseCancel parses and structurally validates a cancel. The signature is not verified.
func ParseCancel(data []byte) (*Cancel, error) {
	cancel := &Cancel{}

	err := parseEnvelope(data, KindCancel, &cancel.Envelope)
	if err != nil {
		return nil, err
	}

	return cancel, nil
}

// OrderStatus is a progress update of the PFI.
type OrderStatus struct {
	Envelope[OrderStatusData]
}

// OrderStatusData is the payload of an order status.
type OrderStatusData struct {
	//nolint:lll
	Status  Status `json:"status" validate:"oneof=PAYIN_PENDING PAYIN_INITIATED PAYIN_SETTLED PAYIN_FAILED PAYIN_EXPIRED PAYOUT_PENDING PAYOUT_INITIATED PAYOUT_SETTLED PAYOUT_FAILED REFUND_PENDING REFUND_INITIATED REFUND_SETTLED REFUND_FAILED"`
	Details string `json:"details,omitempty"`
}

// CreateOrderStatus creates an unsigned order status from the PFI to the customer.
func CreateOrderStatus(from, to, exchangeID string, data OrderStatusData, opts ...Option) (*OrderStatus, error) {
	e, err := create(KindOrderStatus, from, to, exchangeID, data, opts)
	if err != nil {
		return nil, err
	}

	return &OrderStatus{Envelope: e}, nil
}

// ParseOrderStatus parses and structurally validates an order status. The signature is not verified.
func ParseOrderStatus(data []byte) (*OrderStatus, error) {
	status := &OrderStatus{}

	err := parseEnvelope(data, KindOrderStatus, &status.Envelope)
	if err != nil {
		return nil, err
	}

	return status, nil
}

// Close ends an exchange.
type Close struct {
	Envelope[CloseData]
}

// CloseData is the payload of a close. Success is absent when the outcome is not stated.
type CloseData struct {
	Reason  string `json:"reason,omitempty"`
	Success *bool  `json:"success,omitempty"`
}

// CreateClose creates an unsigned close from the PFI to the customer.
func CreateClose(from, to, exchangeID string, data CloseData, opts ...Option) (*Close, error) {
	e, err := create(KindClose, from, to, exchangeID, data, opts)
	if err != nil {
		return nil, err
	}

	return &Close{Envelope: e}, nil
}

// ParseClose parses and structurally validates a close. The signature is not verified.
func ParseClose(data []byte) (*Close, error) {
	c := &Close{}

	err := parseEnvelope(data, KindClose, &c.Envelope)
	if err != nil {
		return nil, err
	}

	return c, nil
}
