package engine

import "github.com/blockberries/subnet/schema"

// Handler schemas. A value that fails its operation's schema is
// dropped before any authorization or state read.

const addAdminSchema = `{
	"type": "object",
	"required": ["key"],
	"properties": {
		"key": {"type": "string", "format": "hex", "minLength": 64, "maxLength": 64}
	},
	"additionalProperties": false
}`

const updateAdminSchema = `{
	"type": "object",
	"required": ["sig"],
	"properties": {
		"key": {"type": ["string", "null"]},
		"sig": {"type": "string", "format": "hex"}
	},
	"additionalProperties": false
}`

const memberSchema = `{
	"type": "object",
	"required": ["key", "sig"],
	"properties": {
		"key": {"type": "string", "minLength": 1},
		"sig": {"type": "string", "format": "hex"}
	},
	"additionalProperties": false
}`

const removeWriterSchema = `{
	"type": "object",
	"required": ["key", "sig"],
	"properties": {
		"key": {"type": "string", "minLength": 1},
		"ban": {"type": "boolean"},
		"sig": {"type": "string", "format": "hex"}
	},
	"additionalProperties": false
}`

const flagSchema = `{
	"type": "object",
	"required": ["enabled", "sig"],
	"properties": {
		"enabled": {"type": "integer", "enum": [0, 1]},
		"sig": {"type": "string", "format": "hex"}
	},
	"additionalProperties": false
}`

const targetStatusSchema = `{
	"type": "object",
	"required": ["key", "status", "sig"],
	"properties": {
		"key": {"type": "string", "format": "bitcoin-address"},
		"status": {"type": "integer", "enum": [0, 1]},
		"sig": {"type": "string", "format": "hex"}
	},
	"additionalProperties": false
}`

const muteSchema = `{
	"type": "object",
	"required": ["key", "status", "by", "sig"],
	"properties": {
		"key": {"type": "string", "format": "bitcoin-address"},
		"status": {"type": "integer", "enum": [0, 1]},
		"by": {"type": "string", "format": "bitcoin-address"},
		"sig": {"type": "string", "format": "hex"}
	},
	"additionalProperties": false
}`

const nickSchema = `{
	"type": "object",
	"required": ["key", "nick", "sig"],
	"properties": {
		"key": {"type": "string", "format": "bitcoin-address"},
		"nick": {"type": "string", "minLength": 1},
		"by": {"type": "string", "format": "bitcoin-address"},
		"sig": {"type": "string", "format": "hex"}
	},
	"additionalProperties": false
}`

const msgSchema = `{
	"type": "object",
	"required": ["address", "msg", "sig"],
	"properties": {
		"address": {"type": "string", "format": "bitcoin-address"},
		"msg": {"type": "string", "minLength": 1},
		"attachments": {
			"type": "array",
			"items": {"type": "string", "format": "hex"},
			"maxItems": 8
		},
		"sig": {"type": "string", "format": "hex"}
	},
	"additionalProperties": false
}`

const msgRefSchema = `{
	"type": "object",
	"required": ["id", "by", "sig"],
	"properties": {
		"id": {"type": "integer", "minimum": 0},
		"by": {"type": "string", "format": "bitcoin-address"},
		"sig": {"type": "string", "format": "hex"}
	},
	"additionalProperties": false
}`

const featureSchema = `{
	"type": "object",
	"required": ["key", "sig"],
	"properties": {
		"key": {"type": "string", "minLength": 1},
		"value": {},
		"sig": {"type": "string", "format": "hex"}
	},
	"additionalProperties": false
}`

const txSchema = `{
	"type": "object",
	"required": ["txid", "height", "requester", "validator", "dispatch"],
	"properties": {
		"txid": {"type": "string", "format": "hex", "minLength": 64, "maxLength": 64},
		"height": {"type": "integer", "minimum": 1},
		"requester": {"type": "string", "format": "bitcoin-address"},
		"validator": {"type": "string", "format": "bitcoin-address"},
		"dispatch": {
			"type": "object",
			"required": ["type"],
			"properties": {
				"type": {"type": "string", "minLength": 1},
				"value": {}
			},
			"additionalProperties": false
		}
	},
	"additionalProperties": false
}`

type opSchemas struct {
	addAdmin      *schema.Validator
	updateAdmin   *schema.Validator
	member        *schema.Validator
	removeWriter  *schema.Validator
	flag          *schema.Validator
	targetStatus  *schema.Validator
	mute          *schema.Validator
	nick          *schema.Validator
	msg           *schema.Validator
	msgRef        *schema.Validator
	feature       *schema.Validator
	tx            *schema.Validator
}

func compileOpSchemas() (*opSchemas, error) {
	s := &opSchemas{}
	for _, c := range []struct {
		dst  **schema.Validator
		name string
		doc  string
	}{
		{&s.addAdmin, "addAdmin", addAdminSchema},
		{&s.updateAdmin, "updateAdmin", updateAdminSchema},
		{&s.member, "member", memberSchema},
		{&s.removeWriter, "removeWriter", removeWriterSchema},
		{&s.flag, "flag", flagSchema},
		{&s.targetStatus, "targetStatus", targetStatusSchema},
		{&s.mute, "mute", muteSchema},
		{&s.nick, "nick", nickSchema},
		{&s.msg, "msg", msgSchema},
		{&s.msgRef, "msgRef", msgRefSchema},
		{&s.feature, "feature", featureSchema},
		{&s.tx, "tx", txSchema},
	} {
		v, err := schema.Compile(c.name, c.doc)
		if err != nil {
			return nil, err
		}
		*c.dst = v
	}
	return s, nil
}
