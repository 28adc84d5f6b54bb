package token

// Number of decimal places in the display representation of token amounts.
// Amounts are always held and transferred in the smallest unit.
const Decimals = 18

// Maximum length in bytes of a token name or symbol.
const MaxNameLength = 64
