// Package clientpool implements the Client Pool and Request-Aware Facade
// (spec §4.5, §4.7): the top-level component that turns an
// authctx.AuthRequest plus caller options into a cached, ready-to-use
// client, backed by a credential.Manager for the credential it needs and a
// cachekey.Builder/ttlcache.Cache pair for the client itself.
package clientpool
