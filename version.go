package conshell

// Version is the release of the conshell module reported by -v and the
// version subcommand.
const Version = "0.4.0"
