/*
Package transport bridges TCP and UDP sockets into line-oriented command input.

TCPServer and UDPServer implement ports.Transport on top of the net package.
Service runs one of each on the same port, reports their lifecycle on the
console and hands every received payload to a ports.DataHandler.

Payloads are delivered as read from the socket. No framing is applied beyond
what the data handler does with line breaks.
*/
package transport
