// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tpm

import (
	"github.com/go-lpc/ifx/annot"
)

// Annotation classes.
const (
	ClassMISOData = iota
	ClassMOSIData
	ClassMISOBits
	ClassMOSIBits
	ClassWarning
	ClassMISOTransfer
	ClassMOSITransfer

	ClassRegHeaderRead
	ClassRegHeaderWrite
	ClassLocality1Read
	ClassLocality1Write
	ClassLocality2Read
	ClassLocality2Write
	ClassLocality3Read
	ClassLocality3Write
	ClassLocality4Read
	ClassLocality4Write

	ClassRegName
	ClassRegSize
	ClassRegAck
	ClassRegNack
	ClassRegDataWrite
	ClassRegDataRead

	ClassState1
	ClassState2
	ClassState3

	ClassCmdTag
	ClassCmdLen
	ClassCmdCode
	ClassCmdDataWrite
	ClassCmdDataRead

	ClassFrameRegSizeWrite
	ClassFrameRegSizeRead
	ClassFrameRegName
	ClassFrameRegAck
	ClassFrameRegNack
	ClassFrameDataWrite
	ClassFrameDataRead

	ClassFrameCmdTag
	ClassFrameCmdLen
	ClassFrameCmdCode
	ClassFrameCmdDataWrite
	ClassFrameCmdDataRead

	ClassFrameState1
	ClassFrameState2
	ClassFrameState3
	ClassFrameState4
	ClassFrameState5
	ClassFrameState6

	ClassCmdErr
	ClassStateErr
	ClassRegErr
	ClassFrameCmdErr
	ClassFrameStateErr
	ClassFrameRegErr
)

// Binary classes.
const (
	BinaryMISO = iota
	BinaryMOSI
)

// Schema describes the annotations produced by the SPI TPM decoder.
var Schema = annot.Schema{
	Name: "spi",
	Classes: []annot.Class{
		{Name: "miso-data", Desc: "MISO data"},
		{Name: "mosi-data", Desc: "MOSI data"},
		{Name: "miso-bits", Desc: "MISO bits"},
		{Name: "mosi-bits", Desc: "MOSI bits"},
		{Name: "warnings", Desc: "Human-readable warnings"},
		{Name: "miso-transfer", Desc: "MISO transfer"},
		{Name: "mosi-transfer", Desc: "MOSI transfer"},

		{Name: "reg-header-r", Desc: "Register Header Read"},
		{Name: "reg-header-w", Desc: "Register Header Write"},
		{Name: "locality1-reg-r", Desc: "Locality 1 Register Read"},
		{Name: "locality1-reg-w", Desc: "Locality 1 Register Write"},
		{Name: "locality2-reg-r", Desc: "Locality 2 Register Read"},
		{Name: "locality2-reg-w", Desc: "Locality 2 Register Write"},
		{Name: "locality3-reg-r", Desc: "Locality 3 Register Read"},
		{Name: "locality3-reg-w", Desc: "Locality 3 Register Write"},
		{Name: "locality4-reg-r", Desc: "Locality 4 Register Read"},
		{Name: "locality4-reg-w", Desc: "Locality 4 Register Write"},

		{Name: "reg-name", Desc: "Register Name"},
		{Name: "reg-sizeofxfer", Desc: "Size of Transfer"},
		{Name: "reg-ack", Desc: "Ack byte"},
		{Name: "reg-nack", Desc: "NAck byte"},
		{Name: "reg-data-w", Desc: "Reg Data Write"},
		{Name: "reg-data-r", Desc: "Reg Data Read"},

		{Name: "state-1", Desc: "State 1"},
		{Name: "state-2", Desc: "State 2"},
		{Name: "state-3", Desc: "State 3"},

		{Name: "cmd-tag", Desc: "Command Tag"},
		{Name: "cmd-len", Desc: "Command Length"},
		{Name: "cmd-ord", Desc: "Command Code"},
		{Name: "cmd-data-w", Desc: "Command Data Write"},
		{Name: "cmd-data-r", Desc: "Command Data Read"},

		{Name: "frame-reg-sizeofxfer-w", Desc: "Frame Sizeof Xfer-w"},
		{Name: "frame-reg-sizeofxfer-r", Desc: "Frame Sizeof Xfer-r"},
		{Name: "frame-reg-name", Desc: "Frame Register Name"},
		{Name: "frame-reg-ack", Desc: "Frame Ack byte"},
		{Name: "frame-reg-nack", Desc: "Frame NAck byte"},
		{Name: "frame-data-w", Desc: "Frame Write"},
		{Name: "frame-data-r", Desc: "Frame Read"},

		{Name: "frame-cmd-tag", Desc: "Frame Command Tag"},
		{Name: "frame-cmd-len", Desc: "Frame Command Length"},
		{Name: "frame-cmd-ord", Desc: "Frame Command Code"},
		{Name: "frame-cmd-data-w", Desc: "Frame Command Data Write"},
		{Name: "frame-cmd-data-r", Desc: "Frame Command Data Read"},

		{Name: "frame-state-1", Desc: "Frame state 1"},
		{Name: "frame-state-2", Desc: "Frame state 2"},
		{Name: "frame-state-3", Desc: "Frame state 3"},
		{Name: "frame-state-4", Desc: "Frame state 4"},
		{Name: "frame-state-5", Desc: "Frame state 5"},
		{Name: "frame-state-6", Desc: "Frame state 6"},

		{Name: "cmd-err", Desc: "Command Error"},
		{Name: "state-err", Desc: "State Error"},
		{Name: "reg-err", Desc: "Register Error"},
		{Name: "frame-cmd-err", Desc: "Frame Command Error"},
		{Name: "frame-state-err", Desc: "Frame State Error"},
		{Name: "frame-reg-err", Desc: "Frame Register Error"},
	},
	Rows: []annot.Row{
		{Name: "miso-bits", Desc: "MISO bits", Classes: []int{ClassMISOBits}},
		{Name: "miso-data", Desc: "MISO data", Classes: []int{ClassMISOData}},
		{Name: "miso-transfer", Desc: "MISO transfer", Classes: []int{ClassMISOTransfer}},
		{Name: "mosi-bits", Desc: "MOSI bits", Classes: []int{ClassMOSIBits}},
		{Name: "mosi-data", Desc: "MOSI data", Classes: []int{ClassMOSIData}},
		{Name: "mosi-transfer", Desc: "MOSI transfer", Classes: []int{ClassMOSITransfer}},
		{Name: "other", Desc: "Other", Classes: []int{ClassWarning}},

		{Name: "cmd", Desc: "Command", Classes: []int{
			ClassCmdTag, ClassCmdLen, ClassCmdCode, ClassCmdDataWrite, ClassCmdDataRead,
			ClassCmdErr,
		}},
		{Name: "state", Desc: "State", Classes: []int{
			ClassState1, ClassState2, ClassState3, ClassStateErr,
		}},
		{Name: "register", Desc: "Register", Classes: []int{
			ClassRegHeaderRead, ClassRegHeaderWrite,
			ClassLocality1Read, ClassLocality1Write,
			ClassLocality2Read, ClassLocality2Write,
			ClassLocality3Read, ClassLocality3Write,
			ClassLocality4Read, ClassLocality4Write,
			ClassRegName, ClassRegSize, ClassRegAck, ClassRegNack,
			ClassRegDataWrite, ClassRegDataRead, ClassRegErr,
		}},

		{Name: "frame-cmd", Desc: "Frame-Command", Classes: []int{
			ClassFrameCmdTag, ClassFrameCmdLen, ClassFrameCmdCode,
			ClassFrameCmdDataWrite, ClassFrameCmdDataRead, ClassFrameCmdErr,
		}},
		{Name: "frame-state", Desc: "Frame-State", Classes: []int{
			ClassFrameState1, ClassFrameState2, ClassFrameState3,
			ClassFrameState4, ClassFrameState5, ClassFrameState6,
			ClassFrameStateErr,
		}},
		{Name: "frame-reg", Desc: "Frame-Register", Classes: []int{
			ClassFrameRegSizeWrite, ClassFrameRegSizeRead, ClassFrameRegName,
			ClassFrameRegAck, ClassFrameRegNack,
			ClassFrameDataWrite, ClassFrameDataRead, ClassFrameRegErr,
		}},
	},
	Binaries: []annot.Class{
		{Name: "miso", Desc: "MISO"},
		{Name: "mosi", Desc: "MOSI"},
	},
}
