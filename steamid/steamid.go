// Package steamid implements the bit-packed 64-bit Steam identifier used
// throughout the CM wire protocol (steamid.h in the Steamworks SDK).
package steamid

import "strconv"

// SteamID is a 64-bit Steam identifier: 8 bits universe, 4 bits account
// type, 20 bits instance, 32 bits account id (high to low).
type SteamID uint64

// SetUniverse sets the universe part of the SteamID and returns the new SteamID.
func (s SteamID) SetUniverse(u int32) SteamID {
	s &= ^SteamID(0xFF << 56)
	s |= SteamID(uint64(u) << 56)
	return s
}

// Universe returns the universe part of the SteamID.
func (s SteamID) Universe() int32 {
	return int32(s >> 56)
}

// SetType sets the account-type part of the SteamID and returns the new SteamID.
func (s SteamID) SetType(t int32) SteamID {
	s &= ^SteamID(0xF << 52)
	s |= SteamID(uint64(t) << 52)
	return s
}

// Type returns the account-type part of the SteamID.
func (s SteamID) Type() int32 {
	return int32((s >> 52) & 0xF)
}

// SetInstance sets the instance part of the SteamID and returns the new SteamID.
func (s SteamID) SetInstance(i int32) SteamID {
	s &= ^SteamID(0xFFFFF << 32)
	s |= SteamID(uint64(i) << 32)
	return s
}

// Instance returns the instance part of the SteamID.
func (s SteamID) Instance() int32 {
	return int32((s >> 32) & 0xFFFFF)
}

// SetAccountID sets the account ID part of the SteamID and returns the new SteamID.
func (s SteamID) SetAccountID(a uint32) SteamID {
	s &= ^SteamID(0xFFFFFFFF)
	s |= SteamID(a)
	return s
}

// AccountID returns the account ID part of the SteamID.
func (s SteamID) AccountID() uint32 {
	return uint32(s & 0xFFFFFFFF)
}

// FromSteamID64 wraps a raw SteamID64 value (as carried on the wire in
// CMsgProtoBufHeader.steamid) in the SteamID type.
func FromSteamID64(steamID64 uint64) SteamID {
	return SteamID(steamID64)
}

// ToSteamID64 returns the SteamID as its wire/SteamID64 representation.
func (s SteamID) ToSteamID64() uint64 {
	return uint64(s)
}

// String returns the decimal SteamID64 representation, e.g. "76561197960287930".
func (s SteamID) String() string {
	return strconv.FormatUint(uint64(s), 10)
}
