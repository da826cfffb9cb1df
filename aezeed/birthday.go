package aezeed

import "time"

// BitcoinGenesisDate is the timestamp of the Bitcoin mainnet genesis block
// header (2009-01-03 18:15:05 UTC). Birthdays are encoded as the number of
// days elapsed since this instant.
var BitcoinGenesisDate = time.Unix(1231006505, 0)

const secondsPerDay = 24 * 60 * 60

// BirthdayFromTime converts a wallet creation time into the u16 "days since
// genesis" encoding used by the seed's birthday field. Times before the
// genesis block collapse to day zero.
func BirthdayFromTime(birthday time.Time) uint16 {
	if birthday.Before(BitcoinGenesisDate) {
		return 0
	}

	days := birthday.Sub(BitcoinGenesisDate) / (secondsPerDay * time.Second)
	if days > 0xFFFF {
		return 0xFFFF
	}

	return uint16(days)
}

// BirthdayToTime converts a seed's raw birthday field back into a wall-clock
// time.
func BirthdayToTime(birthday uint16) time.Time {
	offset := time.Duration(birthday) * secondsPerDay * time.Second
	return BitcoinGenesisDate.Add(offset)
}
