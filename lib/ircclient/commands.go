package ircclient

// Numeric replies the session reacts to or that callers commonly need.
const (
	RPL_WELCOME       = 1
	RPL_YOURHOST      = 2
	RPL_CREATED       = 3
	RPL_MYINFO        = 4
	RPL_ISUPPORT      = 5
	RPL_LUSERCLIENT   = 251
	RPL_LUSEROP       = 252
	RPL_LUSERUNKNOWN  = 253
	RPL_LUSERCHANNELS = 254
	RPL_LUSERME       = 255
	RPL_TOPIC         = 332
	RPL_NAMREPLY      = 353
	RPL_ENDOFNAMES    = 366
	RPL_MOTD          = 372
	RPL_MOTDSTART     = 375
	RPL_ENDOFMOTD     = 376
	ERR_NOMOTD        = 422
	ERR_ERRONEUSNICK  = 432
	ERR_NICKNAMEINUSE = 433
	ERR_NICKCOLLISION = 436
	RPL_LOGGEDIN      = 900
	RPL_SASLSUCCESS   = 903
	ERR_SASLFAIL      = 904
)

// Capability subcommands.
const (
	CapLS   = "LS"
	CapList = "LIST"
	CapReq  = "REQ"
	CapAck  = "ACK"
	CapNak  = "NAK"
	CapNew  = "NEW"
	CapDel  = "DEL"
	CapEnd  = "END"
)
