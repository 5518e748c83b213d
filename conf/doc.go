// Package conf parses client configuration from the standard configuration
// string form, the ILP_CLIENT_CONF environment variable, or a YAML file.
//
// The configuration string grammar is
//
//	schema::key=value;key=value;
//
// for example
//
//	http::addr=localhost:9000;username=admin;password=quest;
//	tcps::addr=localhost:9009;username=testKid;token=<private key d>;
//
// Schemas: http, https, tcp, tcps. A literal ';' inside a value is written
// ";;". Unknown parameters are rejected rather than ignored so that typos
// surface immediately.
//
// The package only parses; transport-dependent defaults (such as the
// auto-flush row threshold) are applied by the Sender.
package conf
