// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package trustm

import (
	"fmt"
)

// Trust M I2C registers.
const (
	regData     = 0x80
	regI2CState = 0x82
)

type register struct {
	class int
	name  string
	short string
}

var registers = map[byte]register{
	0x80: {ClassRegData, "DATA", "DA"},
	0x81: {ClassReg, "DATA_REG_LEN", "DL"},
	0x82: {ClassReg, "I2C_STATE", "IS"},
	0x83: {ClassReg, "BASE_ADDR", "BA"},
	0x84: {ClassReg, "MAX_SCL_FREQU", "MF"},
	0x85: {ClassReg, "GUARD_TIME", "GT"},
	0x86: {ClassReg, "TRANS_TIMOUT", "TT"},
	0x87: {ClassReg, "PWR_SAVE_TIMEOUT", "PT"},
	0x88: {ClassRegSoftReset, "SOFT_RESET", "SR"},
	0x89: {ClassReg, "I2C_MODE", "IM"},
	0x90: {ClassReg, "APP_STATE_0", "A0"},
	0xa0: {ClassReg, "IFX_1", "U0"},
	0xa1: {ClassReg, "IFX_2", "UL"},
}

type command struct {
	name  string
	mid   string
	short string
}

// commands holds the APDU command codes. Bit 7 flags the clearing of
// the session context and does not change the command.
var commands = map[byte]command{
	0x01: {"GETDATAOBJECT", "GETD", "GD"},
	0x02: {"SETDATAOBJECT", "SETD", "SD"},
	0x03: {"SETOBJECTPROTECTED", "SETPRO", "SP"},
	0x0c: {"GETRANDOM", "GETRAN", "GR"},
	0x1e: {"ENCRYPTASYM", "ENC", "EN"},
	0x1f: {"DECRYPTASYM", "DEC", "DE"},
	0x30: {"CALCHASH", "HASH", "HA"},
	0x31: {"CALCSIGN", "SIGN", "SG"},
	0x32: {"VERIFYSIGN", "VERI", "VR"},
	0x33: {"CALCSSEC", "SEC", "SE"},
	0x34: {"DERIVEKEY", "DKEY", "DK"},
	0x38: {"GENKEYPAIR", "GKEY", "GK"},
	0x70: {"OPENAPPLICATION", "OPEN", "OP"},
	0x71: {"CLOSEAPPLICATION", "CLOSE", "CL"},
}

func lookupCmd(v byte) (command, bool) {
	cmd, ok := commands[v&0x7f]
	return cmd, ok
}

// cmdLabels returns the label variants of the APDU command code v.
func cmdLabels(v byte) ([]string, bool) {
	cmd, ok := lookupCmd(v)
	if !ok {
		return nil, false
	}
	return []string{
		fmt.Sprintf("CMD %s:0x%02X", cmd.name, v),
		fmt.Sprintf("%s:0x%02X", cmd.mid, v),
		fmt.Sprintf("%s:%02X", cmd.short, v),
		fmt.Sprintf("%02X", v),
	}, true
}

// cmdName returns a name for the APDU command code v, even when unknown.
func cmdName(v byte) string {
	cmd, ok := lookupCmd(v)
	if !ok {
		return fmt.Sprintf("0x%02X", v)
	}
	return cmd.name
}

// regLabels returns the annotation class and label variants of the
// register reg.
func regLabels(reg byte) (int, []string, bool) {
	r, ok := registers[reg]
	if !ok {
		return 0, nil, false
	}
	return r.class, []string{r.name, r.short}, true
}

func regName(reg byte) string {
	r, ok := registers[reg]
	if !ok {
		return fmt.Sprintf("0x%02X", reg)
	}
	return r.name
}

var errLabels = []string{"PROTOCOL ERROR", "ERROR", "ERR", "E"}

func dataLabels(write bool, v byte) []string {
	if write {
		return []string{
			fmt.Sprintf("DATA WRITE:0x%02X", v),
			fmt.Sprintf("DW:%02X", v),
			fmt.Sprintf("%02X", v),
		}
	}
	return []string{
		fmt.Sprintf("DATA READ:0x%02X", v),
		fmt.Sprintf("DR:%02X", v),
		fmt.Sprintf("%02X", v),
	}
}

func lengthLabels(n int) []string {
	return []string{
		fmt.Sprintf("LENGTH:%d", n),
		fmt.Sprintf("LEN:%d", n),
		fmt.Sprintf("L:%d", n),
		fmt.Sprintf("%d", n),
	}
}

// stateLabels returns the label variants of the I2C_STATE busy and
// response-ready flags.
func stateLabels(v byte) []string {
	switch v >> 6 {
	case 3:
		return []string{"BUSY/RESP_RDY", "BZ/RR", "B/R"}
	case 2:
		return []string{"BUSY", "BZ", "B"}
	case 1:
		return []string{"RESPONSE READY", "RESP_RDY", "RR"}
	}
	return []string{"READY", "RDY", "R"}
}
