// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tpm

import (
	"fmt"
)

// tags maps TPM_ST structure tags to their label variants.
var tags = map[uint16][]string{
	0x00C4: {"TPM_ST_RSP_COMMAND", "RSP_CMD", "RSP"},
	0x8000: {"TPM_ST_NULL", "NULL", "NL"},
	0x8001: {"TPM_ST_NO_SESSIONS", "NO_SESS", "NSE"},
	0x8002: {"TPM_ST_SESSIONS", "SESSION", "SES"},
	0x8014: {"TPM_ST_ATTEST_NV", "ATT_NV", "ANV"},
	0x8015: {"TPM_ST_ATTEST_COMMAND_AUDIT", "ATT_CMD", "ACM"},
	0x8016: {"TPM_ST_ATTEST_SESSION_AUDIT", "ATT_SES", "ASE"},
	0x8017: {"TPM_ST_ATTEST_CERTIFY", "ATT_CER", "ACR"},
	0x8018: {"TPM_ST_ATTEST_QUOTE", "ATT_QUO", "AQU"},
	0x8019: {"TPM_ST_ATTEST_TIME", "ATT_TIM", "ATM"},
	0x801A: {"TPM_ST_ATTEST_CREATION", "ATT_CRE", "ACR"},
	0x801C: {"TPM_ST_ATTEST_NV_DIGEST", "ATT_NVD", "AND"},
	0x8021: {"TPM_ST_CREATION", "CREATIN", "CRE"},
	0x8022: {"TPM_ST_VERIFIED", "VERIFED", "VER"},
	0x8023: {"TPM_ST_AUTH_SECRET", "AUTHSEC", "ASC"},
	0x8024: {"TPM_ST_HASHCHECK", "HASHCHK", "HAC"},
	0x8025: {"TPM_ST_AUTH_SIGNED", "AUTHSIG", "ASG"},
	0x8029: {"TPM_ST_FU_MANIFEST", "FU_MANI", "FUM"},
}

// cmdcodes maps TPM_CC command codes to their names.
var cmdcodes = map[uint32]string{
	0x0000011F: "TPM_CC_NV_UNDEFINESPACESPECIAL",
	0x00000120: "TPM_CC_EVICTCONTROL",
	0x00000121: "TPM_CC_HIERARCHYCONTROL",
	0x00000122: "TPM_CC_NV_UNDEFINESPACE",
	0x00000124: "TPM_CC_CHANGEEPS",
	0x00000125: "TPM_CC_CHANGEPPS",
	0x00000126: "TPM_CC_CLEAR",
	0x00000127: "TPM_CC_CLEARCONTROL",
	0x00000128: "TPM_CC_CLOCKSET",
	0x00000129: "TPM_CC_HIERARCHYCHANGEAUTH",
	0x0000012A: "TPM_CC_NV_DEFINESPACE",
	0x0000012B: "TPM_CC_PCR_ALLOCATE",
	0x0000012C: "TPM_CC_PCR_SETAUTHPOLICY",
	0x0000012D: "TPM_CC_PP_COMMANDS",
	0x0000012E: "TPM_CC_SETPRIMARYPOLICY",
	0x0000012F: "TPM_CC_FIELDUPGRADESTART",
	0x00000130: "TPM_CC_CLOCKRATEADJUST",
	0x00000131: "TPM_CC_CREATEPRIMARY",
	0x00000132: "TPM_CC_NV_GLOBALWRITELOCK",
	0x00000133: "TPM_CC_GETCOMMANDAUDITDIGEST",
	0x00000134: "TPM_CC_NV_INCREMENT",
	0x00000135: "TPM_CC_NV_SETBITS",
	0x00000136: "TPM_CC_NV_EXTEND",
	0x00000137: "TPM_CC_NV_WRITE",
	0x00000138: "TPM_CC_NV_WRITELOCK",
	0x00000139: "TPM_CC_DICTIONARYATTACKLOCKRESET",
	0x0000013A: "TPM_CC_DICTIONARYATTACKPARAMETERS",
	0x0000013B: "TPM_CC_NV_CHANGEAUTH",
	0x0000013C: "TPM_CC_PCR_EVENT",
	0x0000013D: "TPM_CC_PCR_RESET",
	0x0000013E: "TPM_CC_SEQUENCECOMPLETE",
	0x0000013F: "TPM_CC_SETALGORITHMSET",
	0x00000140: "TPM_CC_SETCOMMANDCODEAUDITSTATUS",
	0x00000141: "TPM_CC_FIELDUPGRADEDATA",
	0x00000142: "TPM_CC_INCREMENTALSELFTEST",
	0x00000143: "TPM_CC_SELFTEST",
	0x00000144: "TPM_CC_STARTUP",
	0x00000145: "TPM_CC_SHUTDOWN",
	0x00000146: "TPM_CC_STIRRANDOM",
	0x00000147: "TPM_CC_ACTIVATECREDENTIAL",
	0x00000148: "TPM_CC_CERTIFY",
	0x00000149: "TPM_CC_POLICYNV",
	0x0000014A: "TPM_CC_CERTIFYCREATION",
	0x0000014B: "TPM_CC_DUPLICATE",
	0x0000014C: "TPM_CC_GETTIME",
	0x0000014D: "TPM_CC_GETSESSIONAUDITDIGEST",
	0x0000014E: "TPM_CC_NV_READ",
	0x0000014F: "TPM_CC_NV_READLOCK",
	0x00000150: "TPM_CC_OBJECTCHANGEAUTH",
	0x00000151: "TPM_CC_POLICYSECRET",
	0x00000152: "TPM_CC_REWRAP",
	0x00000153: "TPM_CC_CREATE",
	0x00000154: "TPM_CC_ECDH_ZGEN",
	0x00000155: "TPM_CC_HMAC",
	0x00000156: "TPM_CC_IMPORT",
	0x00000157: "TPM_CC_LOAD",
	0x00000158: "TPM_CC_QUOTE",
	0x00000159: "TPM_CC_RSA_DECRYPT",
	0x0000015B: "TPM_CC_HMAC_START",
	0x0000015C: "TPM_CC_SEQUENCEUPDATE",
	0x0000015D: "TPM_CC_SIGN",
	0x0000015E: "TPM_CC_UNSEAL",
	0x00000160: "TPM_CC_POLICYSIGNED",
	0x00000161: "TPM_CC_CONTEXTLOAD",
	0x00000162: "TPM_CC_CONTEXTSAVE",
	0x00000163: "TPM_CC_ECDH_KEYGEN",
	0x00000164: "TPM_CC_ENCRYPTDECRYPT",
	0x00000165: "TPM_CC_FLUSHCONTEXT",
	0x00000167: "TPM_CC_LOADEXTERNAL",
	0x00000168: "TPM_CC_MAKECREDENTIAL",
	0x00000169: "TPM_CC_NV_READPUBLIC",
	0x0000016A: "TPM_CC_POLICYAUTHORIZE",
	0x0000016B: "TPM_CC_POLICYAUTHVALUE",
	0x0000016C: "TPM_CC_POLICYCOMMANDCODE",
	0x0000016D: "TPM_CC_POLICYCOUNTERTIMER",
	0x0000016E: "TPM_CC_POLICYCPHASH",
	0x0000016F: "TPM_CC_POLICYLOCALITY",
	0x00000170: "TPM_CC_POLICYNAMEHASH",
	0x00000171: "TPM_CC_POLICYOR",
	0x00000172: "TPM_CC_POLICYTICKET",
	0x00000173: "TPM_CC_READPUBLIC",
	0x00000174: "TPM_CC_RSA_ENCRYPT",
	0x00000176: "TPM_CC_STARTAUTHSESSION",
	0x00000177: "TPM_CC_VERIFYSIGNATURE",
	0x00000178: "TPM_CC_ECC_PARAMETERS",
	0x00000179: "TPM_CC_FIRMWAREREAD",
	0x0000017A: "TPM_CC_GETCAPABILITY",
	0x0000017B: "TPM_CC_GETRANDOM",
	0x0000017C: "TPM_CC_GETTESTRESULT",
	0x0000017D: "TPM_CC_HASH",
	0x0000017E: "TPM_CC_PCR_READ",
	0x0000017F: "TPM_CC_POLICYPCR",
	0x00000180: "TPM_CC_POLICYRESTART",
	0x00000181: "TPM_CC_READCLOCK",
	0x00000182: "TPM_CC_PCR_EXTEND",
	0x00000183: "TPM_CC_PCR_SETAUTHVALUE",
	0x00000184: "TPM_CC_NV_CERTIFY",
	0x00000185: "TPM_CC_EVENTSEQUENCECOMPLETE",
	0x00000186: "TPM_CC_HASHSEQUENCESTART",
	0x00000187: "TPM_CC_POLICYPHYSICALPRESENCE",
	0x00000188: "TPM_CC_POLICYDUPLICATIONSELECT",
	0x00000189: "TPM_CC_POLICYGETDIGEST",
	0x0000018A: "TPM_CC_TESTPARMS",
	0x0000018B: "TPM_CC_COMMIT",
	0x0000018C: "TPM_CC_POLICYPASSWORD",
	0x0000018D: "TPM_CC_ZGEN_2PHASE",
	0x0000018E: "TPM_CC_EC_EPHEMERAL",
	0x0000018F: "TPM_CC_POLICYNVWRITTEN",
	0x00000190: "TPM_CC_POLICYTEMPLATE",
	0x00000191: "TPM_CC_CREATELOADED",
	0x00000192: "TPM_CC_POLICYAUTHORIZENV",
	0x00000193: "TPM_CC_ENCRYPTDECRYPT2",
	0x00000194: "TPM_CC_AC_GETCAPABILITY",
	0x00000195: "TPM_CC_AC_SEND",
	0x00000196: "TPM_CC_POLICY_AC_SENDSELECT",
	0x00000197: "TPM_CC_CERTIFYX509",
	0x00000198: "TPM_CC_ACT_SETTIMEOUT",
}

// vendorBit flags vendor specific command codes.
const vendorBit = 0x20000000

// register offsets, within a locality.
const (
	regAccess     = 0x000
	regIntEnable  = 0x008
	regIntVector  = 0x00c
	regIntStatus  = 0x010
	regCapability = 0x014
	regSTS        = 0x018
	regDataFIFO   = 0x024
	regXDataFIFO  = 0x080
	regDIDVID     = 0xf00
	regRID        = 0xf04
)

var registers = map[uint16]struct {
	name  string
	short string
}{
	regAccess:     {"ACCESS", "AC"},
	regIntEnable:  {"INT_ENABLE", "IE"},
	regIntVector:  {"INT_VECTOR", "IV"},
	regIntStatus:  {"INT_STATUS", "IS"},
	regCapability: {"INTF_CAPABILITY", "IC"},
	regSTS:        {"STS", "ST"},
	regDataFIFO:   {"DATA_FIFO", "DF"},
	regXDataFIFO:  {"XDATA_FIFO", "XD"},
	regDIDVID:     {"DID_VID", "DV"},
	regRID:        {"RID", "RI"},
}

// localityClasses holds the register-name annotation class of each locality.
var localityClasses = [...]int{
	ClassRegName,
	ClassLocality1Read,
	ClassLocality2Read,
	ClassLocality3Read,
	ClassLocality4Read,
}

// lookupReg returns the annotation class and label variants of the
// register at address addr.
func lookupReg(addr uint16) (int, []string, bool) {
	loc := int(addr >> 12)
	if loc >= len(localityClasses) {
		return 0, nil, false
	}
	reg, ok := registers[addr&0xfff]
	if !ok {
		return 0, nil, false
	}
	return localityClasses[loc], []string{
		fmt.Sprintf("TPM_%s_%d", reg.name, loc),
		fmt.Sprintf("%s_%d", reg.name, loc),
		fmt.Sprintf("%s%d", reg.short, loc),
	}, true
}

// regName returns the name of the register at address addr.
func regName(addr uint16) string {
	_, lbls, ok := lookupReg(addr)
	if !ok {
		return fmt.Sprintf("0x%04X", addr)
	}
	return lbls[0]
}

// isFIFO returns whether addr is a command/response data register.
func isFIFO(addr uint16) bool {
	switch addr & 0xfff {
	case regDataFIFO, regXDataFIFO:
		return true
	}
	return false
}

// cmdLabels returns the label variants of the command code.
func cmdLabels(code uint32) ([]string, bool) {
	if code&vendorBit != 0 {
		return []string{
			fmt.Sprintf("VENDOR SPECIFIC CMD : 0x%08X", code),
			fmt.Sprintf("VENDOR:0x%08X", code),
			fmt.Sprintf("V:%08X", code),
			fmt.Sprintf("%08X", code),
		}, true
	}
	name, ok := cmdcodes[code]
	if !ok {
		return nil, false
	}
	return []string{name}, true
}

// cmdName returns a name for the command code, even when unknown.
func cmdName(code uint32) string {
	lbls, ok := cmdLabels(code)
	if !ok {
		return fmt.Sprintf("0x%08X", code)
	}
	return lbls[0]
}

func rcLabels(rc uint32) []string {
	return []string{
		fmt.Sprintf("RC : 0x%08X", rc),
		fmt.Sprintf("RC:0x%08X", rc),
		fmt.Sprintf("%08X", rc),
	}
}

var errLabels = []string{"PROTOCOL ERROR", "ERROR", "ERR", "E"}
