package dsp

import "strings"

// NegotiationState is the state string a connector reports for a contract
// negotiation.
type NegotiationState string

const (
	NegotiationInitial     NegotiationState = "INITIAL"
	NegotiationRequesting  NegotiationState = "REQUESTING"
	NegotiationRequested   NegotiationState = "REQUESTED"
	NegotiationOffered     NegotiationState = "OFFERED"
	NegotiationAccepted    NegotiationState = "ACCEPTED"
	NegotiationAgreed      NegotiationState = "AGREED"
	NegotiationVerified    NegotiationState = "VERIFIED"
	NegotiationFinalized   NegotiationState = "FINALIZED"
	NegotiationTerminating NegotiationState = "TERMINATING"
	NegotiationTerminated  NegotiationState = "TERMINATED"
	NegotiationDeclined    NegotiationState = "DECLINED"
	NegotiationError       NegotiationState = "ERROR"
)

// Failed reports whether the negotiation can no longer reach FINALIZED.
func (s NegotiationState) Failed() bool {
	switch NegotiationState(strings.ToUpper(string(s))) {
	case NegotiationTerminating, NegotiationTerminated, NegotiationDeclined, NegotiationError:
		return true
	default:
		return false
	}
}

func (s NegotiationState) Finalized() bool {
	return strings.EqualFold(string(s), string(NegotiationFinalized))
}

// TransferState is the state string a connector reports for a transfer
// process.
type TransferState string

const (
	TransferInitial      TransferState = "INITIAL"
	TransferProvisioning TransferState = "PROVISIONING"
	TransferProvisioned  TransferState = "PROVISIONED"
	TransferRequesting   TransferState = "REQUESTING"
	TransferRequested    TransferState = "REQUESTED"
	TransferStarting     TransferState = "STARTING"
	TransferStarted      TransferState = "STARTED"
	TransferCompleting   TransferState = "COMPLETING"
	TransferCompleted    TransferState = "COMPLETED"
	TransferTerminated   TransferState = "TERMINATED"
	TransferError        TransferState = "ERROR"
)

// Failed reports whether the transfer can no longer reach any target.
func (s TransferState) Failed() bool {
	switch TransferState(strings.ToUpper(string(s))) {
	case TransferTerminated, TransferError:
		return true
	default:
		return false
	}
}

func (s TransferState) Is(target TransferState) bool {
	return strings.EqualFold(string(s), string(target))
}
