package urls

// Endpoint is the remote gallery endpoint root. getdata.php and
// savedata.php are resolved relative to it.
const Endpoint = "http://dev3.xicomtechnologies.com/xttest"

// SecureEndpoint is Endpoint over TLS. gallery-proxy forwards here by default.
const SecureEndpoint = "https://dev3.xicomtechnologies.com/xttest"

// LocalProxy is where 'gallery-proxy serve' exposes Endpoint by default
const LocalProxy = "http://localhost:3001/api"

// Project is shown in the interactive UI footer
const Project = "github.com/muurk/gallery"
