// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package trustm

import (
	"github.com/go-lpc/ifx/annot"
)

// Annotation classes.
const (
	ClassStart = iota
	ClassRepeatStart
	ClassStop
	ClassAck
	ClassNack
	ClassBit
	ClassAddressRead
	ClassAddressWrite
	ClassDataRead
	ClassDataWrite

	ClassReg
	ClassRegData
	ClassRegWrite
	ClassRegRead
	ClassRegSoftReset

	ClassControlFrame
	ClassDataFrame
	ClassFrameType
	ClassSeqCtr
	ClassFrameNr
	ClassAckNr
	ClassFrameLen
	ClassPacketRead
	ClassPacketWrite
	ClassChecksum

	ClassPCTR
	ClassChannel
	ClassChaining
	ClassPresence

	ClassSCTR
	ClassProtocol
	ClassMessage
	ClassProtection

	ClassAPDU
	ClassAPDUCmd
	ClassAPDUParam
	ClassAPDULen
	ClassAPDUDataRead
	ClassAPDUDataWrite

	ClassRFU

	ClassAPDUErr
	ClassHeaderErr
	ClassFrameErr
	ClassRegErr

	ClassSummaryReg
	ClassSummaryWrite
	ClassSummaryRead
	ClassSummaryState
	ClassSummaryLen
	ClassSummaryLink
	ClassSummaryAPDU
	ClassSummaryErr
)

// Binary classes.
const (
	BinaryAddressRead = iota
	BinaryAddressWrite
	BinaryDataRead
	BinaryDataWrite
)

// Schema describes the annotations produced by the I2C Trust M decoder.
var Schema = annot.Schema{
	Name: "i2c",
	Classes: []annot.Class{
		{Name: "start", Desc: "START CONDITION"},
		{Name: "repeat-start", Desc: "REPEAT START CONDITION"},
		{Name: "stop", Desc: "STOP CONDITION"},
		{Name: "ack", Desc: "ACK"},
		{Name: "nack", Desc: "NACK"},
		{Name: "bit", Desc: "DATA/ADDRESS BIT"},
		{Name: "address-read", Desc: "ADDRESS READ"},
		{Name: "address-write", Desc: "ADDRESS WRITE"},
		{Name: "data-read", Desc: "DATA READ"},
		{Name: "data-write", Desc: "DATA WRITE"},

		{Name: "reg-addr", Desc: "REGISTER"},
		{Name: "reg-addr_d", Desc: "REGISTER_D"},
		{Name: "reg-data-w", Desc: "REG WRITE"},
		{Name: "reg-data-r", Desc: "REG READ"},
		{Name: "reg-sr", Desc: "REG SOFT RESET"},

		{Name: "fctr-ctl", Desc: "FCTR CONTROL"},
		{Name: "fctr-dat", Desc: "FCTR DATA"},
		{Name: "fctr-type", Desc: "FCTR TYPE"},
		{Name: "fctr-seqctr", Desc: "FCTR SEQCTR"},
		{Name: "fctr-frnr", Desc: "FCTR FRNR"},
		{Name: "fctr-acknr", Desc: "FCTR ACKNR"},
		{Name: "fctr-len", Desc: "FCTR LENGTH"},
		{Name: "fctr-pk_r", Desc: "FCTR PACKET READ"},
		{Name: "fctr-pk_w", Desc: "FCTR PACKET WRITE"},
		{Name: "fctr-cs", Desc: "FCTR CHECKSUM"},

		{Name: "pctr", Desc: "PCTR"},
		{Name: "pctr-chan", Desc: "PCTR CHANNEL"},
		{Name: "pctr-chain", Desc: "PCTR CHAINING"},
		{Name: "pctr-pres", Desc: "PCTR PRESENTATION"},

		{Name: "sctr", Desc: "SCTR"},
		{Name: "sctr-proto", Desc: "SCTR PROTOCOL"},
		{Name: "sctr-message", Desc: "SCTR MESSAGE"},
		{Name: "sctr-protection", Desc: "SCTR PROTECTION"},

		{Name: "apdu", Desc: "APDU"},
		{Name: "apdu-cmd", Desc: "APDU COMMAND"},
		{Name: "apdu-param", Desc: "APDU PARAM"},
		{Name: "apdu-len", Desc: "APDU LENGTH"},
		{Name: "apdu-data-r", Desc: "APDU DATA-R"},
		{Name: "apdu-data-w", Desc: "APDU DATA-W"},

		{Name: "fctr-rfu", Desc: "FCTR RFU"},

		{Name: "apdu-err", Desc: "APDU ERROR"},
		{Name: "header-err", Desc: "HEADER ERROR"},
		{Name: "frame-err", Desc: "FRAME ERROR"},
		{Name: "reg-err", Desc: "REGISTER ERROR"},

		{Name: "sum-reg", Desc: "SUMMARY REGISTER"},
		{Name: "sum-data-w", Desc: "SUMMARY WRITE"},
		{Name: "sum-data-r", Desc: "SUMMARY READ"},
		{Name: "sum-state", Desc: "SUMMARY I2C STATE"},
		{Name: "sum-len", Desc: "SUMMARY LENGTH"},
		{Name: "sum-link", Desc: "SUMMARY DATALINK FRAME"},
		{Name: "sum-apdu", Desc: "SUMMARY APDU"},
		{Name: "sum-err", Desc: "SUMMARY ERROR"},
	},
	Rows: []annot.Row{
		{Name: "bits", Desc: "Bits", Classes: []int{ClassBit}},
		{Name: "addr-data", Desc: "Address/Data", Classes: []int{
			ClassStart, ClassRepeatStart, ClassStop, ClassAck, ClassNack,
			ClassAddressRead, ClassAddressWrite, ClassDataRead, ClassDataWrite,
		}},
		{Name: "register", Desc: "Register", Classes: []int{
			ClassReg, ClassRegData, ClassRegWrite, ClassRegRead, ClassRegSoftReset,
			ClassRegErr,
		}},
		{Name: "frame", Desc: "Frame", Classes: []int{
			ClassControlFrame, ClassDataFrame, ClassFrameLen,
			ClassPacketRead, ClassPacketWrite, ClassChecksum,
			ClassPCTR, ClassSCTR, ClassAPDU, ClassFrameErr,
		}},
		{Name: "headers", Desc: "Headers", Classes: []int{
			ClassFrameType, ClassSeqCtr, ClassFrameNr, ClassAckNr,
			ClassChannel, ClassChaining, ClassPresence,
			ClassProtocol, ClassMessage, ClassProtection,
			ClassRFU, ClassHeaderErr,
		}},
		{Name: "apdu", Desc: "APDU", Classes: []int{
			ClassAPDUCmd, ClassAPDUParam, ClassAPDULen,
			ClassAPDUDataRead, ClassAPDUDataWrite, ClassAPDUErr,
		}},
		{Name: "summary", Desc: "Summary", Classes: []int{
			ClassSummaryReg, ClassSummaryWrite, ClassSummaryRead,
			ClassSummaryState, ClassSummaryLen, ClassSummaryLink,
			ClassSummaryAPDU, ClassSummaryErr,
		}},
	},
	Binaries: []annot.Class{
		{Name: "address-read", Desc: "ADDRESS READ"},
		{Name: "address-write", Desc: "ADDRESS WRITE"},
		{Name: "data-read", Desc: "DATA READ"},
		{Name: "data-write", Desc: "DATA WRITE"},
	},
}
