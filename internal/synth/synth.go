// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package synth generates canned TPM and Trust M bus sessions.
package synth // import "github.com/go-lpc/ifx/internal/synth"

import (
	"github.com/go-lpc/ifx/internal/crc16"
	"github.com/go-lpc/ifx/logic"
)

// TPM register addresses.
const (
	tpmSTS  = 0x0018
	tpmFIFO = 0x0024
)

// TPM STS bits.
const (
	stsValid     = 0x80
	stsCmdReady  = 0x40
	stsGo        = 0x20
	stsDataAvail = 0x10
)

var (
	// TPMStartup is a TPM2_Startup(SU_CLEAR) command.
	TPMStartup = []byte{0x80, 0x01, 0x00, 0x00, 0x00, 0x0c, 0x00, 0x00, 0x01, 0x44, 0x00, 0x00}
	// TPMStartupResp is a successful TPM2_Startup response.
	TPMStartupResp = []byte{0x80, 0x01, 0x00, 0x00, 0x00, 0x0a, 0x00, 0x00, 0x00, 0x00}

	// TPMGetRandom is a TPM2_GetRandom command for 8 bytes.
	TPMGetRandom = []byte{0x80, 0x01, 0x00, 0x00, 0x00, 0x0c, 0x00, 0x00, 0x01, 0x7b, 0x00, 0x08}
	// TPMGetRandomResp is a TPM2_GetRandom response.
	TPMGetRandomResp = []byte{
		0x80, 0x01, 0x00, 0x00, 0x00, 0x14, 0x00, 0x00, 0x00, 0x00,
		0x00, 0x08, 0xde, 0xad, 0xbe, 0xef, 0x01, 0x23, 0x45, 0x67,
	}
)

// SPIChannels names the physical channels of the TPM sessions.
var SPIChannels = []string{"CLK", "MISO", "MOSI", "CS"}

// SPI returns the SPI waveform synthesizer of the TPM sessions.
func SPI(half int) logic.SPI {
	return logic.SPI{CLK: 0, MISO: 1, MOSI: 2, CS: 3, Half: half}
}

// TPMWrite clocks out a TPM register write of data at addr.
func TPMWrite(b *logic.Builder, spi logic.SPI, addr uint16, data ...byte) (beg, end int64) {
	mosi := append([]byte{byte(len(data) - 1), 0xd4, byte(addr >> 8), byte(addr)}, data...)
	miso := make([]byte, len(mosi))
	miso[3] = 0x01
	beg, end = spi.Transfer(b, mosi, miso)
	spi.Idle(b, 4*spi.Half)
	return beg, end
}

// TPMRead clocks out a TPM register read of data from addr.
func TPMRead(b *logic.Builder, spi logic.SPI, addr uint16, data ...byte) (beg, end int64) {
	mosi := make([]byte, 4+len(data))
	copy(mosi, []byte{0x80 | byte(len(data)-1), 0xd4, byte(addr >> 8), byte(addr)})
	miso := append([]byte{0x00, 0x00, 0x00, 0x01}, data...)
	beg, end = spi.Transfer(b, mosi, miso)
	spi.Idle(b, 4*spi.Half)
	return beg, end
}

// TPMCommand runs the FIFO command sequence of cmd and its response rsp.
// The response is read back in bursts of at most burst bytes.
func TPMCommand(b *logic.Builder, spi logic.SPI, cmd, rsp []byte, burst int) {
	TPMWrite(b, spi, tpmSTS, stsCmdReady)
	TPMWrite(b, spi, tpmFIFO, cmd...)
	TPMWrite(b, spi, tpmSTS, stsGo)
	TPMRead(b, spi, tpmSTS, stsValid|stsDataAvail, byte(burst), byte(burst>>8))
	for i := 0; i < len(rsp); i += burst {
		j := i + burst
		if j > len(rsp) {
			j = len(rsp)
		}
		TPMRead(b, spi, tpmFIFO, rsp[i:j]...)
	}
}

// TPMSession returns a TPM2_Startup then TPM2_GetRandom session.
func TPMSession(half int) logic.Samples {
	var (
		b   = logic.NewBuilder()
		spi = SPI(half)
	)
	spi.Idle(b, 8*half)
	TPMCommand(b, spi, TPMStartup, TPMStartupResp, 64)
	TPMCommand(b, spi, TPMGetRandom, TPMGetRandomResp, 8)
	TPMWrite(b, spi, tpmSTS, stsCmdReady)
	return b.Samples()
}

// I2CChannels names the physical channels of the Trust M sessions.
var I2CChannels = []string{"SCL", "SDA"}

// I2C returns the I2C waveform synthesizer of the Trust M sessions.
func I2C(half int) logic.I2C {
	return logic.I2C{SCL: 0, SDA: 1, Half: half}
}

// Trust M registers.
const (
	regData     = 0x80
	regI2CState = 0x82
)

// Frame returns a Trust M datalink frame carrying payload.
func Frame(fctr byte, payload ...byte) []byte {
	raw := append([]byte{fctr, byte(len(payload) >> 8), byte(len(payload))}, payload...)
	fcs := crc16.Checksum(raw, crc16.Kermit)
	return append(raw, byte(fcs>>8), byte(fcs))
}

// AID is the application identifier of the Trust M application.
var AID = []byte{
	0xd2, 0x76, 0x00, 0x00, 0x04, 0x47, 0x65, 0x6e,
	0x41, 0x75, 0x74, 0x68, 0x41, 0x70, 0x70, 0x6c,
}

// OpenApplication returns the payload of an OpenApplication command frame.
func OpenApplication() []byte {
	return append([]byte{0x00, 0x70, 0x00, 0x00, byte(len(AID))}, AID...)
}

// TrustMSession returns an OpenApplication session with the Trust M
// device at addr: state polling, command frame, response frame and
// acknowledgement.
func TrustMSession(half int, addr uint8) logic.Samples {
	var (
		b   = logic.NewBuilder()
		i2c = I2C(half)
		rsp = Frame(0x00, 0x00, 0x00, 0x00, 0x00, 0x00)
		gap = 4 * half
	)
	i2c.Idle(b, 2*gap)
	i2c.WriteRead(b, addr, regI2CState, 0x00, 0x00, 0x00, 0x00)
	i2c.Idle(b, gap)
	i2c.Write(b, addr, append([]byte{regData}, Frame(0x00, OpenApplication()...)...)...)
	i2c.Idle(b, gap)
	i2c.WriteRead(b, addr, regI2CState, 0x40, 0x00, 0x00, byte(len(rsp)))
	i2c.Idle(b, gap)
	i2c.WriteRead(b, addr, regData, rsp...)
	i2c.Idle(b, gap)
	i2c.Write(b, addr, append([]byte{regData}, Frame(0x80)...)...)
	i2c.Idle(b, gap)
	return b.Samples()
}
