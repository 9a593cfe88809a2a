package tradebus

const Version = "0.4.1"
