// Package offline keeps versioned copies of the converter's static assets and
// answers requests for them when the network is unavailable.
//
// A Manager owns a registry of generations (one per asset version). Installing
// a generation fetches every manifest entry into a named store; activating it
// makes it the one that serves requests and removes every other store. Pages
// talk to the manager over a small message protocol: skipWaiting,
// CHECK_UPDATE_STATUS and {"action":"getVersion"}.
package offline
